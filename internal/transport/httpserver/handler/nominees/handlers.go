package nominees

import (
	nomineedomain "legacy-keeper-go/internal/domain/nominee"
	"legacy-keeper-go/pkg/logger"
)

type Handlers struct {
	Nominees *nomineedomain.Service
	maxBody  int64
	log      logger.Logger
}

func New(nominees *nomineedomain.Service, maxBody int64, log logger.Logger) *Handlers {
	return &Handlers{
		Nominees: nominees,
		maxBody:  maxBody,
		log:      log,
	}
}
