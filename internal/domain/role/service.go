package role

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	userdomain "legacy-keeper-go/internal/domain/user"
	"legacy-keeper-go/pkg/logger"
)

type UserDirectory interface {
	GetByEmail(ctx context.Context, email string) (*userdomain.Profile, error)
}

type Service struct {
	repo     Repository
	users    UserDirectory
	nominees NomineeAccess
	trustees TrusteeStatus
	cache    Cache
	cacheTTL time.Duration
	log      logger.Logger
}

type Option func(*Service)

func WithCache(cache Cache, ttl time.Duration) Option {
	return func(s *Service) {
		if cache != nil && ttl > 0 {
			s.cache = cache
			s.cacheTTL = ttl
		}
	}
}

func NewService(repo Repository, users UserDirectory, nominees NomineeAccess, trustees TrusteeStatus, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		users:    users,
		nominees: nominees,
		trustees: trustees,
		cache:    noopCache{},
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Delegations lists every role context the subject holds relative to other owners.
// Assignments whose nominee or trustee record no longer backs them are skipped.
func (s *Service) Delegations(ctx context.Context, subject Subject) ([]Descriptor, error) {
	if subject.ID == "" {
		return nil, ErrNotAuthenticated
	}
	if cached, ok := s.cache.Get(ctx, subject.ID); ok {
		return cached, nil
	}

	rows, err := s.repo.ListDelegations(ctx, subject.ID)
	if err != nil {
		return nil, fmt.Errorf("list delegations: %w", err)
	}

	result := make([]Descriptor, 0, len(rows))
	for _, row := range rows {
		owner := row.Owner
		switch row.RoleName {
		case NameNominee:
			categories, found, err := s.nominees.NomineeAccess(ctx, owner.ID, subject.Email)
			if err != nil {
				return nil, fmt.Errorf("nominee access: %w", err)
			}
			if !found {
				continue
			}
			granted := make([]string, len(categories))
			copy(granted, categories)
			result = append(result, Descriptor{Name: NameNominee, RelatedUser: &owner, AccessCategories: granted})
		case NameTrustee:
			active, err := s.trustees.TrusteeActive(ctx, owner.ID, subject.Email)
			if err != nil {
				return nil, fmt.Errorf("trustee status: %w", err)
			}
			if !active {
				continue
			}
			result = append(result, Descriptor{Name: NameTrustee, RelatedUser: &owner})
		}
	}

	s.cache.Set(ctx, subject.ID, result, s.cacheTTL)
	return result, nil
}

// CurrentRole picks the role context for this request. actingFor names the owner
// whose data is being viewed; when empty the oldest delegation wins, and an
// account without delegations is a plain user.
func (s *Service) CurrentRole(ctx context.Context, subject Subject, actingFor string) (*Descriptor, error) {
	delegations, err := s.Delegations(ctx, subject)
	if err != nil {
		return nil, err
	}

	if actingFor != "" {
		if actingFor == subject.ID {
			return DefaultDescriptor(), nil
		}
		for i := range delegations {
			if delegations[i].RelatedUser != nil && delegations[i].RelatedUser.ID == actingFor {
				desc := delegations[i]
				return &desc, nil
			}
		}
		return DefaultDescriptor(), nil
	}

	if len(delegations) == 0 {
		return DefaultDescriptor(), nil
	}
	desc := delegations[0]
	return &desc, nil
}

// GrantDelegation is an idempotent upsert of (user, role, owner).
func (s *Service) GrantDelegation(ctx context.Context, userID, roleName, ownerID string) (bool, error) {
	role, err := s.repo.GetRoleByName(ctx, roleName)
	if err != nil {
		return false, fmt.Errorf("get role %s: %w", roleName, err)
	}

	related := ownerID
	created, err := s.repo.UpsertAssignment(ctx, &Assignment{
		ID:            uuid.NewString(),
		UserID:        userID,
		RoleID:        role.ID,
		RelatedUserID: &related,
	})
	if err != nil {
		return false, fmt.Errorf("upsert assignment: %w", err)
	}

	s.cache.Delete(ctx, userID)
	if created {
		s.log.Info("roles: delegation granted", "user_id", userID, "role", roleName, "owner_id", ownerID)
	}
	return created, nil
}

func (s *Service) RevokeDelegation(ctx context.Context, userID, roleName, ownerID string) error {
	role, err := s.repo.GetRoleByName(ctx, roleName)
	if err != nil {
		return fmt.Errorf("get role %s: %w", roleName, err)
	}
	if err := s.repo.DeleteAssignment(ctx, userID, role.ID, ownerID); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	s.cache.Delete(ctx, userID)
	return nil
}

// RevokeByEmail revokes the delegation of whichever account is registered under email.
// An unregistered email has nothing to revoke.
func (s *Service) RevokeByEmail(ctx context.Context, email, roleName, ownerID string) error {
	profile, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil
	}
	return s.RevokeDelegation(ctx, profile.UserID, roleName, ownerID)
}

// InvalidateByEmail drops cached descriptors after a change to the backing records.
func (s *Service) InvalidateByEmail(ctx context.Context, email string) {
	profile, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return
	}
	s.cache.Delete(ctx, profile.UserID)
}
