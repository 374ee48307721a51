package role

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	userdomain "legacy-keeper-go/internal/domain/user"
	"legacy-keeper-go/pkg/logger"
)

type fakeRoleRepo struct {
	roles       map[string]*Role
	assignments []Assignment
	owners      map[string]userdomain.Public
	listCalls   int
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{
		roles: map[string]*Role{
			NameUser:    {ID: "role-user", Name: NameUser},
			NameNominee: {ID: "role-nominee", Name: NameNominee},
			NameTrustee: {ID: "role-trustee", Name: NameTrustee},
		},
		owners: make(map[string]userdomain.Public),
	}
}

func (r *fakeRoleRepo) GetRoleByName(ctx context.Context, name string) (*Role, error) {
	role, ok := r.roles[name]
	if !ok {
		return nil, ErrRoleNotFound
	}
	return role, nil
}

func (r *fakeRoleRepo) UpsertAssignment(ctx context.Context, assignment *Assignment) (bool, error) {
	for _, existing := range r.assignments {
		if existing.UserID == assignment.UserID && existing.RoleID == assignment.RoleID && *existing.RelatedUserID == *assignment.RelatedUserID {
			return false, nil
		}
	}
	assignment.CreatedAt = time.Now().Add(time.Duration(len(r.assignments)) * time.Second)
	r.assignments = append(r.assignments, *assignment)
	return true, nil
}

func (r *fakeRoleRepo) DeleteAssignment(ctx context.Context, userID, roleID, relatedUserID string) error {
	kept := r.assignments[:0]
	for _, existing := range r.assignments {
		if existing.UserID == userID && existing.RoleID == roleID && *existing.RelatedUserID == relatedUserID {
			continue
		}
		kept = append(kept, existing)
	}
	r.assignments = kept
	return nil
}

func (r *fakeRoleRepo) ListDelegations(ctx context.Context, userID string) ([]Delegation, error) {
	r.listCalls++
	var result []Delegation
	for _, assignment := range r.assignments {
		if assignment.UserID != userID || assignment.RelatedUserID == nil {
			continue
		}
		name := strings.TrimPrefix(assignment.RoleID, "role-")
		if name == NameUser {
			continue
		}
		result = append(result, Delegation{RoleName: name, Owner: r.owners[*assignment.RelatedUserID], CreatedAt: assignment.CreatedAt})
	}
	return result, nil
}

type fakeSources struct {
	nominees map[string][]string
	trustees map[string]bool
}

func (f *fakeSources) NomineeAccess(ctx context.Context, ownerID, email string) ([]string, bool, error) {
	categories, ok := f.nominees[ownerID+"|"+email]
	return categories, ok, nil
}

func (f *fakeSources) TrusteeActive(ctx context.Context, ownerID, email string) (bool, error) {
	return f.trustees[ownerID+"|"+email], nil
}

type fakeUsers struct {
	byEmail map[string]*userdomain.Profile
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*userdomain.Profile, error) {
	profile, ok := f.byEmail[email]
	if !ok {
		return nil, userdomain.ErrUserNotFound
	}
	return profile, nil
}

type mapCache struct {
	items map[string][]Descriptor
}

func (c *mapCache) Get(ctx context.Context, userID string) ([]Descriptor, bool) {
	items, ok := c.items[userID]
	return items, ok
}

func (c *mapCache) Set(ctx context.Context, userID string, descriptors []Descriptor, ttl time.Duration) {
	c.items[userID] = descriptors
}

func (c *mapCache) Delete(ctx context.Context, userID string) {
	delete(c.items, userID)
}

func testLogger() logger.Logger {
	return logger.New(io.Discard, slog.LevelError, "text")
}

func strPtr(value string) *string { return &value }

type fixture struct {
	repo    *fakeRoleRepo
	sources *fakeSources
	users   *fakeUsers
	svc     *Service
}

func newFixture(opts ...Option) *fixture {
	repo := newFakeRoleRepo()
	repo.owners["owner-1"] = userdomain.Public{ID: "owner-1", Email: "owner@x.com", Name: "Owner One"}
	repo.owners["owner-2"] = userdomain.Public{ID: "owner-2", Email: "second@x.com", Name: "Owner Two"}
	sources := &fakeSources{nominees: map[string][]string{}, trustees: map[string]bool{}}
	users := &fakeUsers{byEmail: map[string]*userdomain.Profile{
		"owner@x.com": {UserID: "owner-1", Email: strPtr("owner@x.com")},
	}}
	return &fixture{
		repo:    repo,
		sources: sources,
		users:   users,
		svc:     NewService(repo, users, sources, sources, testLogger(), opts...),
	}
}

func TestCurrentRoleDefaultsToUser(t *testing.T) {
	f := newFixture()

	desc, err := f.svc.CurrentRole(context.Background(), Subject{ID: "u2", Email: "u2@y.com"}, "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if desc.Name != NameUser || desc.RelatedUser != nil {
		t.Fatalf("expected plain user, got %+v", desc)
	}
}

func TestCurrentRoleNotAuthenticated(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CurrentRole(context.Background(), Subject{}, "")
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestCurrentRoleNomineeCarriesCategories(t *testing.T) {
	f := newFixture()
	f.sources.nominees["owner-1|u2@y.com"] = []string{CategoryFinance}

	created, err := f.svc.GrantDelegation(context.Background(), "u2", NameNominee, "owner-1")
	if err != nil || !created {
		t.Fatalf("expected grant created, got %v %v", created, err)
	}

	desc, err := f.svc.CurrentRole(context.Background(), Subject{ID: "u2", Email: "u2@y.com"}, "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if desc.Name != NameNominee || desc.RelatedUser == nil || desc.RelatedUser.ID != "owner-1" {
		t.Fatalf("expected nominee of owner-1, got %+v", desc)
	}
	if len(desc.AccessCategories) != 1 || desc.AccessCategories[0] != CategoryFinance {
		t.Fatalf("expected Finance access, got %v", desc.AccessCategories)
	}
}

func TestCurrentRoleActingForSelectsDelegation(t *testing.T) {
	f := newFixture()
	f.sources.nominees["owner-1|u2@y.com"] = []string{CategoryFamily}
	f.sources.trustees["owner-2|u2@y.com"] = true
	ctx := context.Background()

	if _, err := f.svc.GrantDelegation(ctx, "u2", NameNominee, "owner-1"); err != nil {
		t.Fatalf("grant nominee: %v", err)
	}
	if _, err := f.svc.GrantDelegation(ctx, "u2", NameTrustee, "owner-2"); err != nil {
		t.Fatalf("grant trustee: %v", err)
	}

	subject := Subject{ID: "u2", Email: "u2@y.com"}
	desc, err := f.svc.CurrentRole(ctx, subject, "owner-2")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if desc.Name != NameTrustee || desc.RelatedUser.ID != "owner-2" {
		t.Fatalf("expected trustee of owner-2, got %+v", desc)
	}

	own, err := f.svc.CurrentRole(ctx, subject, "u2")
	if err != nil || own.Name != NameUser {
		t.Fatalf("expected own data as user, got %+v %v", own, err)
	}

	unknown, err := f.svc.CurrentRole(ctx, subject, "stranger")
	if err != nil || unknown.Name != NameUser {
		t.Fatalf("expected user for unknown owner, got %+v %v", unknown, err)
	}
}

func TestDelegationsSkipRevokedRecords(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.svc.GrantDelegation(ctx, "u2", NameNominee, "owner-1"); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if _, err := f.svc.GrantDelegation(ctx, "u2", NameTrustee, "owner-2"); err != nil {
		t.Fatalf("grant: %v", err)
	}

	delegations, err := f.svc.Delegations(ctx, Subject{ID: "u2", Email: "u2@y.com"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(delegations) != 0 {
		t.Fatalf("expected delegations without backing records to be skipped, got %+v", delegations)
	}
}

func TestGrantDelegationIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.svc.GrantDelegation(ctx, "u2", NameNominee, "owner-1")
	if err != nil || !first {
		t.Fatalf("expected first grant created, got %v %v", first, err)
	}
	second, err := f.svc.GrantDelegation(ctx, "u2", NameNominee, "owner-1")
	if err != nil || second {
		t.Fatalf("expected second grant to be a no-op, got %v %v", second, err)
	}
	if len(f.repo.assignments) != 1 {
		t.Fatalf("expected exactly one assignment, got %d", len(f.repo.assignments))
	}
}

func TestRevokeDelegationInvalidatesCache(t *testing.T) {
	cache := &mapCache{items: map[string][]Descriptor{}}
	f := newFixture(WithCache(cache, time.Minute))
	f.sources.nominees["owner-1|u2@y.com"] = []string{CategoryFinance}
	ctx := context.Background()
	subject := Subject{ID: "u2", Email: "u2@y.com"}

	if _, err := f.svc.GrantDelegation(ctx, "u2", NameNominee, "owner-1"); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if _, err := f.svc.Delegations(ctx, subject); err != nil {
		t.Fatalf("delegations: %v", err)
	}
	if _, err := f.svc.Delegations(ctx, subject); err != nil {
		t.Fatalf("delegations: %v", err)
	}
	if f.repo.listCalls != 1 {
		t.Fatalf("expected cached second read, got %d repo calls", f.repo.listCalls)
	}

	if err := f.svc.RevokeDelegation(ctx, "u2", NameNominee, "owner-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	desc, err := f.svc.CurrentRole(ctx, subject, "")
	if err != nil {
		t.Fatalf("current role: %v", err)
	}
	if desc.Name != NameUser {
		t.Fatalf("expected access revoked, got %+v", desc)
	}
}

func TestResolveEffectiveOwnerID(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.svc.ResolveEffectiveOwnerID(ctx, "", nil); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}

	id, err := f.svc.ResolveEffectiveOwnerID(ctx, "u2", nil)
	if err != nil || id != "u2" {
		t.Fatalf("expected own id, got %q %v", id, err)
	}

	trustee := &Descriptor{Name: NameTrustee, RelatedUser: &userdomain.Public{ID: "owner-1", Email: "owner@x.com"}}
	id, err = f.svc.ResolveEffectiveOwnerID(ctx, "u2", trustee)
	if err != nil || id != "u2" {
		t.Fatalf("expected trustee to read own id, got %q %v", id, err)
	}

	nominee := &Descriptor{Name: NameNominee, RelatedUser: &userdomain.Public{Email: "owner@x.com"}}
	id, err = f.svc.ResolveEffectiveOwnerID(ctx, "u2", nominee)
	if err != nil || id != "owner-1" {
		t.Fatalf("expected inviter id, got %q %v", id, err)
	}

	missing := &Descriptor{Name: NameNominee, RelatedUser: &userdomain.Public{Email: "gone@x.com"}}
	id, err = f.svc.ResolveEffectiveOwnerID(ctx, "u2", missing)
	if err != nil || id != "u2" {
		t.Fatalf("expected fallback to session id, got %q %v", id, err)
	}
}
