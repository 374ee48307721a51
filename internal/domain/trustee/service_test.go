package trustee_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"sync"
	"testing"
	"time"

	"legacy-keeper-go/internal/domain/attachment"
	"legacy-keeper-go/internal/domain/invitation"
	"legacy-keeper-go/internal/domain/nominee"
	"legacy-keeper-go/internal/domain/role"
	"legacy-keeper-go/internal/domain/trustee"
	userdomain "legacy-keeper-go/internal/domain/user"
	"legacy-keeper-go/internal/domain/validation"
	"legacy-keeper-go/internal/repository/inmemory"
	"legacy-keeper-go/pkg/logger"
)

const (
	ownerID   = "owner-1"
	inviteeID = "invitee-1"
	bucket    = "trustee-documents"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []invitation.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event invitation.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []invitation.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	result := make([]invitation.EventType, 0, len(p.events))
	for _, event := range p.events {
		result = append(result, event.Type)
	}
	return result
}

type testEnv struct {
	store  *inmemory.Store
	blobs  *inmemory.BlobStore
	users  *userdomain.Service
	roles  *role.Service
	events *recordingPublisher
	now    time.Time
	svc    *trustee.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := logger.New(io.Discard, slog.LevelError, "text")
	env := &testEnv{
		store:  inmemory.NewStore(),
		blobs:  inmemory.NewBlobStore(""),
		events: &recordingPublisher{},
		now:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	env.users = userdomain.NewService(env.store.Users())
	env.roles = role.NewService(
		env.store.Roles(),
		env.users,
		nominee.NewAccessLookup(env.store.Nominees()),
		trustee.NewLookup(env.store.Trustees()),
		log,
	)
	issuer := invitation.NewIssuer(24*time.Hour, invitation.WithClock(func() time.Time { return env.now }))
	env.svc = trustee.NewService(trustee.Deps{
		Repo:        env.store.Trustees(),
		Users:       env.users,
		Roles:       env.roles,
		Attachments: attachment.NewService(env.blobs, attachment.BucketOptions{SizeLimit: 1024}, log),
		Issuer:      issuer,
		Events:      env.events,
		Bucket:      bucket,
		BaseURL:     "https://app.test",
		Log:         log,
	})

	ctx := context.Background()
	if err := env.users.UpsertProfile(ctx, ownerID, "owner@x.com", "Owner", ""); err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	if err := env.users.UpsertProfile(ctx, inviteeID, "t@x.com", "Trusted", ""); err != nil {
		t.Fatalf("seed invitee: %v", err)
	}
	return env
}

func validInput() trustee.Input {
	return trustee.Input{
		Name:         "Trusted Person",
		Email:        "T@x.com",
		Relationship: "Sibling",
		Phone:        "+10000000",
		ApprovalType: "Group Approval",
	}
}

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	parsed, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse link %q: %v", link, err)
	}
	token := parsed.Query().Get("token")
	if token == "" {
		t.Fatalf("link %q has no token", link)
	}
	return token
}

func TestAddTrusteeKeepsOneTrusteePerOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.svc.AddTrustee(ctx, ownerID, validInput())
	if err != nil {
		t.Fatalf("add trustee: %v", err)
	}
	if result.Trustee.Status != invitation.StatusPending {
		t.Fatalf("expected pending, got %s", result.Trustee.Status)
	}
	if result.Trustee.Email != "t@x.com" {
		t.Fatalf("expected normalized email, got %q", result.Trustee.Email)
	}
	if result.Trustee.ApprovalType != "group" || result.Trustee.Label() != "Group Approval" {
		t.Fatalf("unexpected policy %q / %q", result.Trustee.ApprovalType, result.Trustee.Label())
	}

	second := validInput()
	second.Email = "other@x.com"
	if _, err := env.svc.AddTrustee(ctx, ownerID, second); !errors.Is(err, trustee.ErrDuplicateTrustee) {
		t.Fatalf("expected ErrDuplicateTrustee, got %v", err)
	}

	count, err := env.svc.CountTrustees(ctx, ownerID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 trustee, got %d", count)
	}
}

func TestAddTrusteeConcurrentCallsCreateOne(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.AddTrustee(ctx, ownerID, validInput())
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			if !errors.Is(err, trustee.ErrDuplicateTrustee) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Fatalf("expected exactly one successful add, got %d", succeeded)
	}
	count, _ := env.svc.CountTrustees(ctx, ownerID)
	if count != 1 {
		t.Fatalf("expected 1 trustee, got %d", count)
	}
}

func TestAddTrusteeValidatesInput(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.AddTrustee(context.Background(), ownerID, trustee.Input{Email: "nope", ApprovalType: "grup approval"})
	var verr *validation.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{"name", "email", "relationship", "phone", "approval_type"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Fatalf("expected %s to be reported, got %v", field, verr.Fields)
		}
	}
}

func TestAddTrusteeReportsAttachmentFailuresSeparately(t *testing.T) {
	env := newTestEnv(t)

	input := validInput()
	input.Files = []attachment.File{
		{Kind: attachment.KindProfilePhoto, Filename: "me.png", ContentType: "image/png", Data: []byte("png")},
		{Kind: attachment.KindGovernmentID, Filename: "id.pdf", ContentType: "application/pdf", Data: make([]byte, 2048)},
	}

	result, err := env.svc.AddTrustee(context.Background(), ownerID, input)
	if err != nil {
		t.Fatalf("add trustee: %v", err)
	}
	if result.Trustee.ProfilePhotoURL == nil {
		t.Fatalf("expected profile photo url")
	}
	if result.Trustee.GovernmentIDURL != nil {
		t.Fatalf("expected no government id url, got %q", *result.Trustee.GovernmentIDURL)
	}
	if len(result.AttachmentErrors) != 1 || result.AttachmentErrors[0].Field != attachment.KindGovernmentID {
		t.Fatalf("unexpected attachment errors: %+v", result.AttachmentErrors)
	}
	if !errors.Is(result.AttachmentErrors[0].Err, attachment.ErrFileTooLarge) {
		t.Fatalf("expected size failure, got %v", result.AttachmentErrors[0].Err)
	}
}

func TestInvitationByTokenIsUniformForUnknownAndExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.svc.AddTrustee(ctx, ownerID, validInput())
	if err != nil {
		t.Fatalf("add trustee: %v", err)
	}
	token := tokenFromLink(t, result.InvitationLink)

	inv, err := env.svc.InvitationByToken(ctx, token)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if inv.Trustee.ID != result.Trustee.ID || inv.Owner.Email != "owner@x.com" {
		t.Fatalf("unexpected invitation %+v", inv)
	}

	if _, err := env.svc.InvitationByToken(ctx, "never-issued"); !errors.Is(err, invitation.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for unknown token, got %v", err)
	}

	env.now = env.now.Add(25 * time.Hour)
	if _, err := env.svc.InvitationByToken(ctx, token); !errors.Is(err, invitation.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestRespondAcceptGrantsTrusteeRoleOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.svc.AddTrustee(ctx, ownerID, validInput())
	if err != nil {
		t.Fatalf("add trustee: %v", err)
	}
	invitee := role.Subject{ID: inviteeID, Email: "t@x.com"}

	for i := 0; i < 2; i++ {
		accepted, err := env.svc.Respond(ctx, invitee, result.Trustee.ID, invitation.ActionAccept)
		if err != nil {
			t.Fatalf("accept #%d: %v", i+1, err)
		}
		if accepted.Status != invitation.StatusAccepted || accepted.InvitationRespondedAt == nil {
			t.Fatalf("unexpected trustee after accept: %+v", accepted)
		}
	}
	if got := env.store.Roles().AssignmentCount(); got != 1 {
		t.Fatalf("expected one assignment, got %d", got)
	}

	desc, err := env.roles.CurrentRole(ctx, invitee, "")
	if err != nil {
		t.Fatalf("current role: %v", err)
	}
	if desc.Name != role.NameTrustee || desc.RelatedUser == nil || desc.RelatedUser.ID != ownerID {
		t.Fatalf("unexpected descriptor %+v", desc)
	}

	if _, err := env.svc.Respond(ctx, invitee, result.Trustee.ID, invitation.ActionReject); !errors.Is(err, invitation.ErrAlreadyResponded) {
		t.Fatalf("expected ErrAlreadyResponded, got %v", err)
	}

	types := env.events.types()
	if len(types) != 2 || types[0] != invitation.EventIssued || types[1] != invitation.EventAccepted {
		t.Fatalf("unexpected events %v", types)
	}
}

func TestRespondOnlyByAddressee(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.svc.AddTrustee(ctx, ownerID, validInput())
	if err != nil {
		t.Fatalf("add trustee: %v", err)
	}

	stranger := role.Subject{ID: "stranger", Email: "stranger@x.com"}
	if _, err := env.svc.Respond(ctx, stranger, result.Trustee.ID, invitation.ActionAccept); !errors.Is(err, trustee.ErrTrusteeNotFound) {
		t.Fatalf("expected ErrTrusteeNotFound, got %v", err)
	}
	if got := env.store.Roles().AssignmentCount(); got != 0 {
		t.Fatalf("expected no assignment, got %d", got)
	}
}

func TestInvitationForInviteeUsesSessionEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.InvitationForInvitee(ctx, ""); !errors.Is(err, role.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}

	result, err := env.svc.AddTrustee(ctx, ownerID, validInput())
	if err != nil {
		t.Fatalf("add trustee: %v", err)
	}
	inv, err := env.svc.InvitationForInvitee(ctx, " T@X.com ")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if inv.Trustee.ID != result.Trustee.ID || inv.Owner.Name != "Owner" {
		t.Fatalf("unexpected invitation %+v", inv)
	}
}

func TestUpdateTrusteeEmailReaddressesInvitation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.svc.AddTrustee(ctx, ownerID, validInput())
	if err != nil {
		t.Fatalf("add trustee: %v", err)
	}
	invitee := role.Subject{ID: inviteeID, Email: "t@x.com"}
	if _, err := env.svc.Respond(ctx, invitee, result.Trustee.ID, invitation.ActionAccept); err != nil {
		t.Fatalf("accept: %v", err)
	}

	input := validInput()
	input.Email = "new@x.com"
	updated, err := env.svc.UpdateTrustee(ctx, ownerID, result.Trustee.ID, input)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Trustee.Status != invitation.StatusPending || updated.InvitationLink == "" {
		t.Fatalf("expected a fresh pending invitation, got %+v", updated)
	}
	if tokenFromLink(t, updated.InvitationLink) == tokenFromLink(t, result.InvitationLink) {
		t.Fatalf("expected a new token")
	}

	desc, err := env.roles.CurrentRole(ctx, invitee, "")
	if err != nil {
		t.Fatalf("current role: %v", err)
	}
	if desc.Name != role.NameUser {
		t.Fatalf("expected previous invitee to lose the role, got %+v", desc)
	}
}

func TestUpdateTrusteeReplacesAttachment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	input := validInput()
	input.Files = []attachment.File{{Kind: attachment.KindProfilePhoto, Filename: "a.png", Data: []byte("a")}}
	result, err := env.svc.AddTrustee(ctx, ownerID, input)
	if err != nil {
		t.Fatalf("add trustee: %v", err)
	}
	oldPath, ok := attachment.ObjectPath(bucket, *result.Trustee.ProfilePhotoURL)
	if !ok {
		t.Fatalf("cannot derive object path from %q", *result.Trustee.ProfilePhotoURL)
	}

	input.Files = []attachment.File{{Kind: attachment.KindProfilePhoto, Filename: "b.png", Data: []byte("b")}}
	updated, err := env.svc.UpdateTrustee(ctx, ownerID, result.Trustee.ID, input)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if *updated.Trustee.ProfilePhotoURL == *result.Trustee.ProfilePhotoURL {
		t.Fatalf("expected a new photo url")
	}
	if env.blobs.Has(bucket, oldPath) {
		t.Fatalf("expected superseded blob %s to be removed", oldPath)
	}

	input.Files = nil
	kept, err := env.svc.UpdateTrustee(ctx, ownerID, result.Trustee.ID, input)
	if err != nil {
		t.Fatalf("update without files: %v", err)
	}
	if *kept.Trustee.ProfilePhotoURL != *updated.Trustee.ProfilePhotoURL {
		t.Fatalf("expected url to be kept when no file is sent")
	}
}

func TestDeleteTrusteeRevokesRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.svc.AddTrustee(ctx, ownerID, validInput())
	if err != nil {
		t.Fatalf("add trustee: %v", err)
	}
	invitee := role.Subject{ID: inviteeID, Email: "t@x.com"}
	if _, err := env.svc.Respond(ctx, invitee, result.Trustee.ID, invitation.ActionAccept); err != nil {
		t.Fatalf("accept: %v", err)
	}

	if err := env.svc.DeleteTrustee(ctx, "someone-else", result.Trustee.ID); !errors.Is(err, trustee.ErrTrusteeNotFound) {
		t.Fatalf("expected scoped delete to miss, got %v", err)
	}
	if err := env.svc.DeleteTrustee(ctx, ownerID, result.Trustee.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := env.store.Roles().AssignmentCount(); got != 0 {
		t.Fatalf("expected assignment to be revoked, got %d", got)
	}
	if _, err := env.svc.AddTrustee(ctx, ownerID, validInput()); err != nil {
		t.Fatalf("expected a new trustee to be allowed after delete: %v", err)
	}
}

func TestReissueInvitation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.svc.AddTrustee(ctx, ownerID, validInput())
	if err != nil {
		t.Fatalf("add trustee: %v", err)
	}
	invitee := role.Subject{ID: inviteeID, Email: "t@x.com"}
	if _, err := env.svc.Respond(ctx, invitee, result.Trustee.ID, invitation.ActionReject); err != nil {
		t.Fatalf("reject: %v", err)
	}

	reissued, err := env.svc.ReissueInvitation(ctx, ownerID, result.Trustee.ID)
	if err != nil {
		t.Fatalf("reissue: %v", err)
	}
	if reissued.Trustee.Status != invitation.StatusPending || reissued.Trustee.InvitationRespondedAt != nil {
		t.Fatalf("expected pending again, got %+v", reissued.Trustee)
	}
	if _, err := env.svc.InvitationByToken(ctx, tokenFromLink(t, result.InvitationLink)); !errors.Is(err, invitation.ErrInvalidToken) {
		t.Fatalf("expected the old token to stop working, got %v", err)
	}

	if _, err := env.svc.Respond(ctx, invitee, result.Trustee.ID, invitation.ActionAccept); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := env.svc.ReissueInvitation(ctx, ownerID, result.Trustee.ID); !errors.Is(err, invitation.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for accepted trustee, got %v", err)
	}
}
