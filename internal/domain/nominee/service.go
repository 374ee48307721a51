package nominee

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"legacy-keeper-go/internal/domain/attachment"
	"legacy-keeper-go/internal/domain/invitation"
	"legacy-keeper-go/internal/domain/role"
	userdomain "legacy-keeper-go/internal/domain/user"
	"legacy-keeper-go/internal/domain/validation"
	"legacy-keeper-go/pkg/logger"
)

type UserDirectory interface {
	GetByID(ctx context.Context, userID string) (*userdomain.Profile, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.Profile, error)
}

type RoleGranter interface {
	GrantDelegation(ctx context.Context, userID, roleName, ownerID string) (bool, error)
	RevokeByEmail(ctx context.Context, email, roleName, ownerID string) error
	InvalidateByEmail(ctx context.Context, email string)
}

type Deps struct {
	Repo        Repository
	Users       UserDirectory
	Roles       RoleGranter
	Attachments *attachment.Service
	Issuer      *invitation.Issuer
	Events      invitation.Publisher
	Bucket      string
	BaseURL     string
	Log         logger.Logger
}

type Service struct {
	repo    Repository
	users   UserDirectory
	roles   RoleGranter
	files   *attachment.Service
	issuer  *invitation.Issuer
	events  invitation.Publisher
	bucket  string
	baseURL string
	log     logger.Logger
}

func NewService(deps Deps) *Service {
	events := deps.Events
	if events == nil {
		events = invitation.NoopPublisher{}
	}
	return &Service{
		repo:    deps.Repo,
		users:   deps.Users,
		roles:   deps.Roles,
		files:   deps.Attachments,
		issuer:  deps.Issuer,
		events:  events,
		bucket:  deps.Bucket,
		baseURL: deps.BaseURL,
		log:     deps.Log,
	}
}

func (s *Service) ListNominees(ctx context.Context, ownerID string) ([]Nominee, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *Service) GetNominee(ctx context.Context, ownerID, id string) (*Nominee, error) {
	return s.repo.GetByID(ctx, ownerID, id)
}

func (s *Service) AddNominee(ctx context.Context, ownerID string, input Input) (*Result, error) {
	categories, err := input.validate()
	if err != nil {
		return nil, err
	}
	email := userdomain.NormalizeEmail(input.Email)

	if _, err := s.repo.GetByOwnerAndEmail(ctx, ownerID, email); err == nil {
		return nil, ErrDuplicateNominee
	} else if !errors.Is(err, ErrNomineeNotFound) {
		return nil, fmt.Errorf("check nominee: %w", err)
	}

	nominee := Nominee{
		ID:               uuid.NewString(),
		UserID:           ownerID,
		Name:             strings.TrimSpace(input.Name),
		Email:            email,
		Relationship:     strings.TrimSpace(input.Relationship),
		Phone:            strings.TrimSpace(input.Phone),
		AccessCategories: pq.StringArray(categories),
		Status:           invitation.StatusNone,
	}

	var token string
	if input.SendInvitation {
		ticket, err := s.issuer.Issue()
		if err != nil {
			return nil, fmt.Errorf("issue invitation: %w", err)
		}
		applyTicket(&nominee, ticket)
		token = ticket.Token
	}

	uploads, failures := s.files.UploadAll(ctx, s.bucket, ownerID, input.Files)
	nominee.ProfilePhotoURL = uploads.URL(attachment.KindProfilePhoto)
	nominee.GovernmentIDURL = uploads.URL(attachment.KindGovernmentID)

	if err := s.repo.Create(ctx, &nominee); err != nil {
		s.files.Discard(ctx, s.bucket, uploads.List())
		if errors.Is(err, ErrDuplicateNominee) {
			return nil, err
		}
		return nil, fmt.Errorf("create nominee: %w", err)
	}

	s.log.Info("nominees: nominee added", "owner_id", ownerID, "nominee_id", nominee.ID, "status", nominee.Status)
	result := &Result{Nominee: &nominee, AttachmentErrors: failures}
	if token != "" {
		result.InvitationLink = invitation.Link(s.baseURL, invitation.KindNominee, token)
		s.publish(ctx, invitation.EventIssued, &nominee)
	}
	return result, nil
}

// UpdateNominee replaces the editable fields. A new email starts the nominee over
// and revokes access held through the old one; category changes take effect on
// the nominee's next request.
func (s *Service) UpdateNominee(ctx context.Context, ownerID, id string, input Input) (*Result, error) {
	categories, err := input.validate()
	if err != nil {
		return nil, err
	}

	nominee, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	previousEmail := nominee.Email
	email := userdomain.NormalizeEmail(input.Email)
	readdressed := email != userdomain.NormalizeEmail(previousEmail)
	if readdressed {
		if other, err := s.repo.GetByOwnerAndEmail(ctx, ownerID, email); err == nil && other.ID != nominee.ID {
			return nil, ErrDuplicateNominee
		}
		nominee.Status = invitation.StatusNone
		nominee.InvitationToken = nil
		nominee.InvitationSentAt = nil
		nominee.InvitationExpiresAt = nil
		nominee.InvitationRespondedAt = nil
		nominee.GrantedAt = nil
	}

	var token string
	if input.SendInvitation {
		next, err := invitation.Reissue(nominee.Status)
		if err != nil {
			return nil, err
		}
		ticket, err := s.issuer.Issue()
		if err != nil {
			return nil, fmt.Errorf("issue invitation: %w", err)
		}
		applyTicket(nominee, ticket)
		nominee.Status = next
		token = ticket.Token
	}

	uploads, failures := s.files.UploadAll(ctx, s.bucket, ownerID, input.Files)
	var superseded []*string
	if url := uploads.URL(attachment.KindProfilePhoto); url != nil {
		superseded = append(superseded, nominee.ProfilePhotoURL)
		nominee.ProfilePhotoURL = url
	}
	if url := uploads.URL(attachment.KindGovernmentID); url != nil {
		superseded = append(superseded, nominee.GovernmentIDURL)
		nominee.GovernmentIDURL = url
	}

	nominee.Name = strings.TrimSpace(input.Name)
	nominee.Email = email
	nominee.Relationship = strings.TrimSpace(input.Relationship)
	nominee.Phone = strings.TrimSpace(input.Phone)
	nominee.AccessCategories = pq.StringArray(categories)

	if err := s.repo.Save(ctx, nominee); err != nil {
		s.files.Discard(ctx, s.bucket, uploads.List())
		if errors.Is(err, ErrDuplicateNominee) {
			return nil, err
		}
		return nil, fmt.Errorf("update nominee: %w", err)
	}
	s.files.DiscardURLs(ctx, s.bucket, superseded...)

	if readdressed {
		if err := s.roles.RevokeByEmail(ctx, previousEmail, role.NameNominee, ownerID); err != nil {
			s.log.InternalError("nominees.update: revoke previous invitee failed", err, "owner_id", ownerID, "nominee_id", id)
		}
	} else {
		s.roles.InvalidateByEmail(ctx, email)
	}

	result := &Result{Nominee: nominee, AttachmentErrors: failures}
	if token != "" {
		result.InvitationLink = invitation.Link(s.baseURL, invitation.KindNominee, token)
		s.publish(ctx, invitation.EventIssued, nominee)
	}
	return result, nil
}

// DeleteNominee removes the row and with it the nominee's access to the owner.
func (s *Service) DeleteNominee(ctx context.Context, ownerID, id string) error {
	nominee, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}

	if err := s.roles.RevokeByEmail(ctx, nominee.Email, role.NameNominee, ownerID); err != nil {
		s.log.InternalError("nominees.delete: revoke role failed", err, "owner_id", ownerID, "nominee_id", id)
	}
	s.files.DiscardURLs(ctx, s.bucket, nominee.ProfilePhotoURL, nominee.GovernmentIDURL)
	s.log.Info("nominees: nominee deleted", "owner_id", ownerID, "nominee_id", id)
	return nil
}

// SendRequest issues a fresh token to a nominee that has not answered yet.
func (s *Service) SendRequest(ctx context.Context, ownerID, id string) (*Result, error) {
	var (
		result *Nominee
		token  string
	)
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		nominee, err := tx.LockByID(ctx, ownerID, id)
		if err != nil {
			return err
		}
		next, err := invitation.Reissue(nominee.Status)
		if err != nil {
			return err
		}
		ticket, err := s.issuer.Issue()
		if err != nil {
			return fmt.Errorf("issue invitation: %w", err)
		}
		applyTicket(nominee, ticket)
		nominee.Status = next
		if err := tx.Save(ctx, nominee); err != nil {
			return err
		}
		result, token = nominee, ticket.Token
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("nominees: invitation sent", "owner_id", ownerID, "nominee_id", id)
	s.publish(ctx, invitation.EventIssued, result)
	return &Result{
		Nominee:        result,
		InvitationLink: invitation.Link(s.baseURL, invitation.KindNominee, token),
	}, nil
}

// GetDetails resolves an onboarding link. Unknown and expired tokens fail the same way.
func (s *Service) GetDetails(ctx context.Context, token string) (*Details, error) {
	if strings.TrimSpace(token) == "" {
		return nil, invitation.ErrInvalidToken
	}
	nominee, err := s.repo.GetByTokenHash(ctx, invitation.HashToken(token))
	if err != nil {
		if errors.Is(err, ErrNomineeNotFound) {
			return nil, invitation.ErrInvalidToken
		}
		return nil, err
	}
	if s.issuer.Expired(nominee.InvitationExpiresAt) {
		return nil, invitation.ErrInvalidToken
	}

	details := &Details{Nominee: nominee, Inviter: userdomain.Public{ID: nominee.UserID}}
	inviter, err := s.users.GetByID(ctx, nominee.UserID)
	if err != nil {
		if !errors.Is(err, userdomain.ErrUserNotFound) {
			s.log.InternalError("nominees.details: load inviter failed", err, "owner_id", nominee.UserID)
		}
		return details, nil
	}
	details.Inviter = inviter.Public()
	return details, nil
}

// Verify records the invitee's answer to a token. On accept the account
// registered under the nominee's email gains the nominee role; without such an
// account the outcome is pending_registration and the role is granted by a
// later accept or by the trustee.
func (s *Service) Verify(ctx context.Context, token string, action invitation.Action) (*Verification, error) {
	action, err := invitation.ParseAction(string(action))
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(token) == "" {
		return nil, invitation.ErrInvalidToken
	}

	var (
		result  *Nominee
		changed bool
	)
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		nominee, err := tx.LockByTokenHash(ctx, invitation.HashToken(token))
		if err != nil {
			if errors.Is(err, ErrNomineeNotFound) {
				return invitation.ErrInvalidToken
			}
			return err
		}
		if s.issuer.Expired(nominee.InvitationExpiresAt) {
			return invitation.ErrInvalidToken
		}

		next, ok, err := invitation.Respond(nominee.Status, action)
		if err != nil {
			return err
		}
		if ok {
			now := s.issuer.Now()
			nominee.Status = next
			nominee.InvitationRespondedAt = &now
			if err := tx.Save(ctx, nominee); err != nil {
				return err
			}
		}
		result, changed = nominee, ok
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.log.Info("nominees: invitation answered", "nominee_id", result.ID, "owner_id", result.UserID, "status", result.Status)
		s.publish(ctx, invitation.ResponseEvent(action), result)
	}

	if action == invitation.ActionReject {
		return &Verification{Nominee: result, Outcome: invitation.OutcomeRejected}, nil
	}

	outcome, err := s.grantToAccount(ctx, result)
	if err != nil {
		return nil, err
	}
	return &Verification{Nominee: result, Outcome: outcome}, nil
}

// GrantRole is the trustee's "Add as Nominee". Eligibility under the approval
// policy is checked by the caller. Granting twice is a no-op.
func (s *Service) GrantRole(ctx context.Context, ownerID, id string) (*Nominee, invitation.Outcome, error) {
	nominee, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, "", err
	}
	if _, _, err := invitation.Grant(nominee.Status); err != nil {
		return nil, "", err
	}

	outcome, err := s.grantToAccount(ctx, nominee)
	if err != nil {
		return nil, "", err
	}
	if outcome == invitation.OutcomePendingRegistration {
		return nominee, outcome, nil
	}

	var changed bool
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		locked, err := tx.LockByID(ctx, ownerID, id)
		if err != nil {
			return err
		}
		next, ok, err := invitation.Grant(locked.Status)
		if err != nil {
			return err
		}
		if ok {
			now := s.issuer.Now()
			locked.Status = next
			locked.GrantedAt = &now
			if err := tx.Save(ctx, locked); err != nil {
				return err
			}
		}
		nominee, changed = locked, ok
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	if changed {
		s.log.Info("nominees: nominee granted", "owner_id", ownerID, "nominee_id", id)
		s.publish(ctx, invitation.EventGranted, nominee)
	}
	return nominee, outcome, nil
}

// Decline is the trustee's rejection of a nominee that has not been granted.
// A role the nominee gained by accepting is revoked with it.
func (s *Service) Decline(ctx context.Context, ownerID, id string) (*Nominee, error) {
	var (
		result  *Nominee
		changed bool
	)
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		nominee, err := tx.LockByID(ctx, ownerID, id)
		if err != nil {
			return err
		}
		next, ok, err := invitation.Decline(nominee.Status)
		if err != nil {
			return err
		}
		if ok {
			nominee.Status = next
			if err := tx.Save(ctx, nominee); err != nil {
				return err
			}
		}
		result, changed = nominee, ok
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		if err := s.roles.RevokeByEmail(ctx, result.Email, role.NameNominee, ownerID); err != nil {
			s.log.InternalError("nominees.decline: revoke role failed", err, "owner_id", ownerID, "nominee_id", id)
			s.roles.InvalidateByEmail(ctx, result.Email)
		}
		s.log.Info("nominees: nominee declined", "owner_id", ownerID, "nominee_id", id)
		s.publish(ctx, invitation.EventRejected, result)
	}
	return result, nil
}

// AccessCategories returns the categories granted to email by owner.
func (s *Service) AccessCategories(ctx context.Context, ownerID, email string) ([]string, error) {
	nominee, err := s.repo.GetByOwnerAndEmail(ctx, ownerID, userdomain.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return nominee.Categories(), nil
}

func (s *Service) grantToAccount(ctx context.Context, nominee *Nominee) (invitation.Outcome, error) {
	account, err := s.users.GetByEmail(ctx, nominee.Email)
	if err != nil {
		if errors.Is(err, userdomain.ErrUserNotFound) {
			s.log.Info("nominees: invitee not registered yet", "nominee_id", nominee.ID, "owner_id", nominee.UserID)
			return invitation.OutcomePendingRegistration, nil
		}
		return "", fmt.Errorf("find nominee account: %w", err)
	}
	if _, err := s.roles.GrantDelegation(ctx, account.UserID, role.NameNominee, nominee.UserID); err != nil {
		return "", fmt.Errorf("grant nominee role: %w", err)
	}
	return invitation.OutcomeRoleGranted, nil
}

func (s *Service) publish(ctx context.Context, eventType invitation.EventType, nominee *Nominee) {
	err := s.events.Publish(ctx, invitation.Event{
		Type:         eventType,
		Kind:         invitation.KindNominee,
		RecordID:     nominee.ID,
		OwnerID:      nominee.UserID,
		InviteeEmail: nominee.Email,
		Status:       nominee.Status,
		OccurredAt:   s.issuer.Now(),
	})
	if err != nil {
		s.log.Warn("nominees: publish event failed", "type", eventType, "nominee_id", nominee.ID, "err", err)
	}
}

func applyTicket(nominee *Nominee, ticket invitation.Ticket) {
	hash := ticket.Hash
	issuedAt := ticket.IssuedAt
	nominee.Status = invitation.StatusPending
	nominee.InvitationToken = &hash
	nominee.InvitationSentAt = &issuedAt
	nominee.InvitationExpiresAt = ticket.ExpiresAt
	nominee.InvitationRespondedAt = nil
}

func (in Input) validate() ([]string, error) {
	var verr validation.Error
	verr.Required("name", in.Name)
	verr.Required("email", in.Email)
	verr.Required("relationship", in.Relationship)
	verr.Required("phone", in.Phone)
	if email := strings.TrimSpace(in.Email); email != "" && !strings.Contains(email, "@") {
		verr.Add("email", "email is invalid")
	}

	categories, unknown := role.CanonicalCategories(in.AccessCategories)
	if len(unknown) > 0 {
		verr.Add("access_categories", "unknown access categories: "+strings.Join(unknown, ", "))
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}
