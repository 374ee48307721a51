package trustees

import (
	trusteedomain "legacy-keeper-go/internal/domain/trustee"
	"legacy-keeper-go/pkg/logger"
)

type Handlers struct {
	Trustees *trusteedomain.Service
	maxBody  int64
	log      logger.Logger
}

// New builds the trustee handlers. maxBody caps multipart request bodies.
func New(trustees *trusteedomain.Service, maxBody int64, log logger.Logger) *Handlers {
	return &Handlers{
		Trustees: trustees,
		maxBody:  maxBody,
		log:      log,
	}
}
