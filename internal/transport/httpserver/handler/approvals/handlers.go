package approvals

import (
	"context"

	approvaldomain "legacy-keeper-go/internal/domain/approval"
	userdomain "legacy-keeper-go/internal/domain/user"
	"legacy-keeper-go/pkg/logger"
)

// OwnerDirectory finds the owner a trustee names by email.
type OwnerDirectory interface {
	GetByEmail(ctx context.Context, email string) (*userdomain.Profile, error)
}

type Handlers struct {
	Approvals *approvaldomain.Service
	Owners    OwnerDirectory
	log       logger.Logger
}

func New(approvals *approvaldomain.Service, owners OwnerDirectory, log logger.Logger) *Handlers {
	return &Handlers{
		Approvals: approvals,
		Owners:    owners,
		log:       log,
	}
}
