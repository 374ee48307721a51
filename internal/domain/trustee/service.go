package trustee

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"legacy-keeper-go/internal/domain/approval"
	"legacy-keeper-go/internal/domain/attachment"
	"legacy-keeper-go/internal/domain/invitation"
	"legacy-keeper-go/internal/domain/role"
	userdomain "legacy-keeper-go/internal/domain/user"
	"legacy-keeper-go/internal/domain/validation"
	"legacy-keeper-go/pkg/logger"
)

type UserDirectory interface {
	GetByID(ctx context.Context, userID string) (*userdomain.Profile, error)
}

type RoleGranter interface {
	GrantDelegation(ctx context.Context, userID, roleName, ownerID string) (bool, error)
	RevokeByEmail(ctx context.Context, email, roleName, ownerID string) error
}

type Deps struct {
	Repo        Repository
	Users       UserDirectory
	Roles       RoleGranter
	Attachments *attachment.Service
	Issuer      *invitation.Issuer
	Events      invitation.Publisher
	// Bucket holds trustee photos and government ids.
	Bucket  string
	BaseURL string
	Log     logger.Logger
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

func (s *Service) ListTrustees(ctx context.Context, ownerID string) ([]Trustee, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *Service) CountTrustees(ctx context.Context, ownerID string) (int64, error) {
	return s.repo.CountByOwner(ctx, ownerID)
}

func (s *Service) GetTrustee(ctx context.Context, ownerID, id string) (*Trustee, error) {
	return s.repo.GetByID(ctx, ownerID, id)
}

// AddTrustee creates the owner's only trustee with a fresh pending invitation.
// Attachments are uploaded first; a failed upload leaves the URL empty and is
// reported in the result, a failed insert removes whatever was uploaded.
func (s *Service) AddTrustee(ctx context.Context, ownerID string, input Input) (*Result, error) {
	policy, label, err := input.validate()
	if err != nil {
		return nil, err
	}

	count, err := s.repo.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("count trustees: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicateTrustee
	}

	ticket, err := s.issuer.Issue()
	if err != nil {
		return nil, fmt.Errorf("issue invitation: %w", err)
	}

	uploads, failures := s.files.UploadAll(ctx, s.bucket, ownerID, input.Files)

	trustee := Trustee{
		ID:                  uuid.NewString(),
		UserID:              ownerID,
		Name:                strings.TrimSpace(input.Name),
		Email:               userdomain.NormalizeEmail(input.Email),
		Relationship:        strings.TrimSpace(input.Relationship),
		Phone:               strings.TrimSpace(input.Phone),
		ProfilePhotoURL:     uploads.URL(attachment.KindProfilePhoto),
		GovernmentIDURL:     uploads.URL(attachment.KindGovernmentID),
		ApprovalType:        policy,
		ApprovalLabel:       label,
		Status:              invitation.StatusPending,
		InvitationToken:     &ticket.Hash,
		InvitationSentAt:    &ticket.IssuedAt,
		InvitationExpiresAt: ticket.ExpiresAt,
	}

	err = s.repo.Transaction(ctx, func(tx Repository) error {
		count, err := tx.CountByOwner(ctx, ownerID)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateTrustee
		}
		return tx.Create(ctx, &trustee)
	})
	if err != nil {
		s.files.Discard(ctx, s.bucket, uploads.List())
		if errors.Is(err, ErrDuplicateTrustee) {
			return nil, err
		}
		return nil, fmt.Errorf("create trustee: %w", err)
	}

	s.log.Info("trustees: trustee added", "owner_id", ownerID, "trustee_id", trustee.ID, "policy", policy)
	s.publish(ctx, invitation.EventIssued, &trustee)

	return &Result{
		Trustee:          &trustee,
		InvitationLink:   invitation.Link(s.baseURL, invitation.KindTrustee, ticket.Token),
		AttachmentErrors: failures,
	}, nil
}

// UpdateTrustee replaces the editable fields. Files not supplied keep their
// current URL; replaced files are removed after the write succeeds. Changing the
// email re-addresses the invitation and revokes the previous invitee.
func (s *Service) UpdateTrustee(ctx context.Context, ownerID, id string, input Input) (*Result, error) {
	policy, label, err := input.validate()
	if err != nil {
		return nil, err
	}

	trustee, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	previousEmail := trustee.Email
	email := userdomain.NormalizeEmail(input.Email)
	readdressed := email != userdomain.NormalizeEmail(previousEmail)

	var ticket invitation.Ticket
	if readdressed {
		if ticket, err = s.issuer.Issue(); err != nil {
			return nil, fmt.Errorf("issue invitation: %w", err)
		}
		trustee.Status = invitation.StatusPending
		trustee.InvitationToken = &ticket.Hash
		trustee.InvitationSentAt = &ticket.IssuedAt
		trustee.InvitationExpiresAt = ticket.ExpiresAt
		trustee.InvitationRespondedAt = nil
	}

	uploads, failures := s.files.UploadAll(ctx, s.bucket, ownerID, input.Files)
	var superseded []*string
	if url := uploads.URL(attachment.KindProfilePhoto); url != nil {
		superseded = append(superseded, trustee.ProfilePhotoURL)
		trustee.ProfilePhotoURL = url
	}
	if url := uploads.URL(attachment.KindGovernmentID); url != nil {
		superseded = append(superseded, trustee.GovernmentIDURL)
		trustee.GovernmentIDURL = url
	}

	trustee.Name = strings.TrimSpace(input.Name)
	trustee.Email = email
	trustee.Relationship = strings.TrimSpace(input.Relationship)
	trustee.Phone = strings.TrimSpace(input.Phone)
	trustee.ApprovalType = policy
	trustee.ApprovalLabel = label

	if err := s.repo.Save(ctx, trustee); err != nil {
		s.files.Discard(ctx, s.bucket, uploads.List())
		return nil, fmt.Errorf("update trustee: %w", err)
	}
	s.files.DiscardURLs(ctx, s.bucket, superseded...)

	result := &Result{Trustee: trustee, AttachmentErrors: failures}
	if readdressed {
		if err := s.roles.RevokeByEmail(ctx, previousEmail, role.NameTrustee, ownerID); err != nil {
			s.log.InternalError("trustees.update: revoke previous invitee failed", err, "owner_id", ownerID, "trustee_id", id)
		}
		result.InvitationLink = invitation.Link(s.baseURL, invitation.KindTrustee, ticket.Token)
		s.publish(ctx, invitation.EventIssued, trustee)
	}
	return result, nil
}

// DeleteTrustee removes the row, the invitee's trustee role for this owner and
// the stored attachments.
func (s *Service) DeleteTrustee(ctx context.Context, ownerID, id string) error {
	trustee, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}

	if err := s.roles.RevokeByEmail(ctx, trustee.Email, role.NameTrustee, ownerID); err != nil {
		s.log.InternalError("trustees.delete: revoke role failed", err, "owner_id", ownerID, "trustee_id", id)
	}
	s.files.DiscardURLs(ctx, s.bucket, trustee.ProfilePhotoURL, trustee.GovernmentIDURL)
	s.log.Info("trustees: trustee deleted", "owner_id", ownerID, "trustee_id", id)
	return nil
}

// ReissueInvitation replaces the token and puts the invitation back to pending.
// An accepted trustee has nothing left to answer.
func (s *Service) ReissueInvitation(ctx context.Context, ownerID, id string) (*Result, error) {
	trustee, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if trustee.Status == invitation.StatusAccepted {
		return nil, invitation.ErrInvalidTransition
	}

	ticket, err := s.issuer.Issue()
	if err != nil {
		return nil, fmt.Errorf("issue invitation: %w", err)
	}
	trustee.Status = invitation.StatusPending
	trustee.InvitationToken = &ticket.Hash
	trustee.InvitationSentAt = &ticket.IssuedAt
	trustee.InvitationExpiresAt = ticket.ExpiresAt
	trustee.InvitationRespondedAt = nil

	if err := s.repo.Save(ctx, trustee); err != nil {
		return nil, fmt.Errorf("reissue invitation: %w", err)
	}
	s.publish(ctx, invitation.EventIssued, trustee)

	return &Result{
		Trustee:        trustee,
		InvitationLink: invitation.Link(s.baseURL, invitation.KindTrustee, ticket.Token),
	}, nil
}

// InvitationForInvitee finds the invitation addressed to the signed-in email.
func (s *Service) InvitationForInvitee(ctx context.Context, email string) (*Invitation, error) {
	email = userdomain.NormalizeEmail(email)
	if email == "" {
		return nil, role.ErrNotAuthenticated
	}
	trustee, err := s.repo.LatestForEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.withOwner(ctx, trustee), nil
}

// InvitationByToken resolves an onboarding link. Unknown and expired tokens
// fail the same way.
func (s *Service) InvitationByToken(ctx context.Context, token string) (*Invitation, error) {
	if strings.TrimSpace(token) == "" {
		return nil, invitation.ErrInvalidToken
	}
	trustee, err := s.repo.GetByTokenHash(ctx, invitation.HashToken(token))
	if err != nil {
		if errors.Is(err, ErrTrusteeNotFound) {
			return nil, invitation.ErrInvalidToken
		}
		return nil, err
	}
	if s.issuer.Expired(trustee.InvitationExpiresAt) {
		return nil, invitation.ErrInvalidToken
	}
	return s.withOwner(ctx, trustee), nil
}

// Respond records the invitee's answer. Only the invitee the row is addressed
// to may answer; repeating the recorded answer succeeds without changes.
func (s *Service) Respond(ctx context.Context, invitee role.Subject, trusteeID string, action invitation.Action) (*Trustee, error) {
	if invitee.ID == "" || invitee.Email == "" {
		return nil, role.ErrNotAuthenticated
	}

	var (
		result  *Trustee
		changed bool
	)
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		trustee, err := tx.LockByID(ctx, trusteeID)
		if err != nil {
			return err
		}
		if userdomain.NormalizeEmail(trustee.Email) != userdomain.NormalizeEmail(invitee.Email) {
			return ErrTrusteeNotFound
		}
		if trustee.Status == invitation.StatusPending && s.issuer.Expired(trustee.InvitationExpiresAt) {
			return invitation.ErrInvalidToken
		}

		next, ok, err := invitation.Respond(trustee.Status, action)
		if err != nil {
			return err
		}
		if ok {
			now := s.issuer.Now()
			if err := tx.SetStatus(ctx, trustee.ID, next, now); err != nil {
				return err
			}
			trustee.Status = next
			trustee.InvitationRespondedAt = &now
		}
		result, changed = trustee, ok
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Status == invitation.StatusAccepted {
		if _, err := s.roles.GrantDelegation(ctx, invitee.ID, role.NameTrustee, result.UserID); err != nil {
			return nil, fmt.Errorf("grant trustee role: %w", err)
		}
	}
	if changed {
		s.log.Info("trustees: invitation answered", "trustee_id", result.ID, "owner_id", result.UserID, "status", result.Status)
		s.publish(ctx, invitation.ResponseEvent(action), result)
	}
	return result, nil
}

func (s *Service) withOwner(ctx context.Context, trustee *Trustee) *Invitation {
	result := &Invitation{Trustee: trustee, Owner: userdomain.Public{ID: trustee.UserID}}
	owner, err := s.users.GetByID(ctx, trustee.UserID)
	if err != nil {
		if !errors.Is(err, userdomain.ErrUserNotFound) {
			s.log.InternalError("trustees: load owner profile failed", err, "owner_id", trustee.UserID)
		}
		return result
	}
	result.Owner = owner.Public()
	return result
}

func (s *Service) publish(ctx context.Context, eventType invitation.EventType, trustee *Trustee) {
	err := s.events.Publish(ctx, invitation.Event{
		Type:         eventType,
		Kind:         invitation.KindTrustee,
		RecordID:     trustee.ID,
		OwnerID:      trustee.UserID,
		InviteeEmail: trustee.Email,
		Status:       trustee.Status,
		OccurredAt:   s.issuer.Now(),
	})
	if err != nil {
		s.log.Warn("trustees: publish event failed", "type", eventType, "trustee_id", trustee.ID, "err", err)
	}
}

func (in Input) validate() (approval.Policy, *string, error) {
	var verr validation.Error
	verr.Required("name", in.Name)
	verr.Required("email", in.Email)
	verr.Required("relationship", in.Relationship)
	verr.Required("phone", in.Phone)
	verr.Required("approval_type", in.ApprovalType)
	if email := strings.TrimSpace(in.Email); email != "" && !strings.Contains(email, "@") {
		verr.Add("email", "email is invalid")
	}

	var (
		policy approval.Policy
		label  *string
	)
	if strings.TrimSpace(in.ApprovalType) != "" {
		parsed, err := approval.ParsePolicy(in.ApprovalType)
		if err != nil {
			verr.Add("approval_type", "approval_type must be individual, group or no request")
		} else {
			policy = parsed
			if text := strings.TrimSpace(in.ApprovalType); approval.Policy(text) != parsed {
				label = &text
			}
		}
	}
	if err := verr.Err(); err != nil {
		return "", nil, err
	}
	return policy, label, nil
}
