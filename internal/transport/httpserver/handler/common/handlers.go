package common

import (
	roledomain "legacy-keeper-go/internal/domain/role"
	"legacy-keeper-go/pkg/logger"
)

type Handlers struct {
	Roles *roledomain.Service
	log   logger.Logger
}

func New(roles *roledomain.Service, log logger.Logger) *Handlers {
	return &Handlers{
		Roles: roles,
		log:   log,
	}
}
