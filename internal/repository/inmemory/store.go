package inmemory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"legacy-keeper-go/internal/domain/invitation"
	nomineedomain "legacy-keeper-go/internal/domain/nominee"
	roledomain "legacy-keeper-go/internal/domain/role"
	trusteedomain "legacy-keeper-go/internal/domain/trustee"
	userdomain "legacy-keeper-go/internal/domain/user"
)

// Store keeps every table in process memory. It enforces the same uniqueness
// rules as the Postgres schema and backs local runs and handler tests.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	profiles    map[string]userdomain.Profile
	roles       map[string]roledomain.Role
	assignments []roledomain.Assignment
	trustees    map[string]trusteedomain.Trustee
	nominees    map[string]nomineedomain.Nominee
}

func NewStore() *Store {
	s := &Store{
		profiles: make(map[string]userdomain.Profile),
		roles:    make(map[string]roledomain.Role),
		trustees: make(map[string]trusteedomain.Trustee),
		nominees: make(map[string]nomineedomain.Nominee),
	}
	for _, name := range []string{roledomain.NameUser, roledomain.NameNominee, roledomain.NameTrustee} {
		s.roles[name] = roledomain.Role{ID: uuid.NewString(), Name: name}
	}
	return s
}

func (s *Store) Users() *UserRepository       { return &UserRepository{s: s} }
func (s *Store) Roles() *RoleRepository       { return &RoleRepository{s: s} }
func (s *Store) Trustees() *TrusteeRepository { return &TrusteeRepository{s: s} }
func (s *Store) Nominees() *NomineeRepository { return &NomineeRepository{s: s} }

func sameEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

type UserRepository struct {
	s *Store
}

func (r *UserRepository) UpsertProfile(ctx context.Context, profile *userdomain.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now().UTC()
	existing, ok := r.s.profiles[profile.UserID]
	if !ok {
		stored := *profile
		stored.CreatedAt = now
		stored.UpdatedAt = now
		r.s.profiles[profile.UserID] = stored
		return nil
	}
	if profile.Email != nil {
		existing.Email = profile.Email
	}
	if profile.Name != nil {
		existing.Name = profile.Name
	}
	if profile.AvatarURL != nil {
		existing.AvatarURL = profile.AvatarURL
	}
	existing.UpdatedAt = now
	r.s.profiles[profile.UserID] = existing
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID string) (*userdomain.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	profile, ok := r.s.profiles[userID]
	if !ok {
		return nil, userdomain.ErrUserNotFound
	}
	return &profile, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*userdomain.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var found *userdomain.Profile
	for _, profile := range r.s.profiles {
		if profile.Email == nil || !sameEmail(*profile.Email, email) {
			continue
		}
		if found == nil || profile.CreatedAt.Before(found.CreatedAt) {
			candidate := profile
			found = &candidate
		}
	}
	if found == nil {
		return nil, userdomain.ErrUserNotFound
	}
	return found, nil
}

type RoleRepository struct {
	s *Store
}

func (r *RoleRepository) GetRoleByName(ctx context.Context, name string) (*roledomain.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	role, ok := r.s.roles[name]
	if !ok {
		return nil, roledomain.ErrRoleNotFound
	}
	return &role, nil
}

func (r *RoleRepository) UpsertAssignment(ctx context.Context, assignment *roledomain.Assignment) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.assignments {
		if existing.UserID == assignment.UserID && existing.RoleID == assignment.RoleID && sameRelated(existing.RelatedUserID, assignment.RelatedUserID) {
			return false, nil
		}
	}
	stored := *assignment
	stored.CreatedAt = time.Now().UTC()
	r.s.assignments = append(r.s.assignments, stored)
	return true, nil
}

func (r *RoleRepository) DeleteAssignment(ctx context.Context, userID, roleID, relatedUserID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	kept := r.s.assignments[:0]
	for _, existing := range r.s.assignments {
		if existing.UserID == userID && existing.RoleID == roleID && existing.RelatedUserID != nil && *existing.RelatedUserID == relatedUserID {
			continue
		}
		kept = append(kept, existing)
	}
	r.s.assignments = kept
	return nil
}

func (r *RoleRepository) ListDelegations(ctx context.Context, userID string) ([]roledomain.Delegation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	names := make(map[string]string, len(r.s.roles))
	for name, role := range r.s.roles {
		names[role.ID] = name
	}

	var result []roledomain.Delegation
	for _, assignment := range r.s.assignments {
		if assignment.UserID != userID || assignment.RelatedUserID == nil {
			continue
		}
		name := names[assignment.RoleID]
		if name != roledomain.NameNominee && name != roledomain.NameTrustee {
			continue
		}
		owner := userdomain.Public{ID: *assignment.RelatedUserID}
		if profile, ok := r.s.profiles[*assignment.RelatedUserID]; ok {
			owner = profile.Public()
		}
		result = append(result, roledomain.Delegation{RoleName: name, Owner: owner, CreatedAt: assignment.CreatedAt})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// AssignmentCount is used by tests to check that grants stay idempotent.
func (r *RoleRepository) AssignmentCount() int {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.assignments)
}

func sameRelated(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

type TrusteeRepository struct {
	s *Store
}

// Transaction only serializes fn against other transactions. There is no
// rollback: writes made before fn returns an error stay in the store.
func (r *TrusteeRepository) Transaction(ctx context.Context, fn func(trusteedomain.Repository) error) error {
	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()
	return fn(r)
}

func (r *TrusteeRepository) Create(ctx context.Context, trustee *trusteedomain.Trustee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.trustees {
		if existing.UserID == trustee.UserID {
			return trusteedomain.ErrDuplicateTrustee
		}
	}
	now := time.Now().UTC()
	trustee.CreatedAt = now
	trustee.UpdatedAt = now
	r.s.trustees[trustee.ID] = *trustee
	return nil
}

func (r *TrusteeRepository) Save(ctx context.Context, trustee *trusteedomain.Trustee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.trustees[trustee.ID]; !ok {
		return trusteedomain.ErrTrusteeNotFound
	}
	trustee.UpdatedAt = time.Now().UTC()
	r.s.trustees[trustee.ID] = *trustee
	return nil
}

func (r *TrusteeRepository) Delete(ctx context.Context, ownerID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.trustees[id]
	if !ok || existing.UserID != ownerID {
		return trusteedomain.ErrTrusteeNotFound
	}
	delete(r.s.trustees, id)
	return nil
}

func (r *TrusteeRepository) GetByID(ctx context.Context, ownerID, id string) (*trusteedomain.Trustee, error) {
	return r.find(func(t trusteedomain.Trustee) bool { return t.ID == id && t.UserID == ownerID })
}

func (r *TrusteeRepository) LockByID(ctx context.Context, id string) (*trusteedomain.Trustee, error) {
	return r.find(func(t trusteedomain.Trustee) bool { return t.ID == id })
}

func (r *TrusteeRepository) ListByOwner(ctx context.Context, ownerID string) ([]trusteedomain.Trustee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]trusteedomain.Trustee, 0, 1)
	for _, trustee := range r.s.trustees {
		if trustee.UserID == ownerID {
			result = append(result, trustee)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (r *TrusteeRepository) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	trustees, err := r.ListByOwner(ctx, ownerID)
	return int64(len(trustees)), err
}

func (r *TrusteeRepository) GetByOwnerAndEmail(ctx context.Context, ownerID, email string) (*trusteedomain.Trustee, error) {
	return r.find(func(t trusteedomain.Trustee) bool { return t.UserID == ownerID && sameEmail(t.Email, email) })
}

func (r *TrusteeRepository) LatestForEmail(ctx context.Context, email string) (*trusteedomain.Trustee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var found *trusteedomain.Trustee
	for _, trustee := range r.s.trustees {
		if !sameEmail(trustee.Email, email) {
			continue
		}
		candidate := trustee
		if found == nil || preferInvitation(&candidate, found) {
			found = &candidate
		}
	}
	if found == nil {
		return nil, trusteedomain.ErrTrusteeNotFound
	}
	return found, nil
}

func preferInvitation(a, b *trusteedomain.Trustee) bool {
	aPending := a.Status == invitation.StatusPending
	bPending := b.Status == invitation.StatusPending
	if aPending != bPending {
		return aPending
	}
	return a.CreatedAt.After(b.CreatedAt)
}

func (r *TrusteeRepository) GetByTokenHash(ctx context.Context, hash string) (*trusteedomain.Trustee, error) {
	return r.find(func(t trusteedomain.Trustee) bool { return t.InvitationToken != nil && *t.InvitationToken == hash })
}

func (r *TrusteeRepository) SetStatus(ctx context.Context, id string, status invitation.Status, respondedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	trustee, ok := r.s.trustees[id]
	if !ok {
		return trusteedomain.ErrTrusteeNotFound
	}
	trustee.Status = status
	trustee.InvitationRespondedAt = &respondedAt
	trustee.UpdatedAt = time.Now().UTC()
	r.s.trustees[id] = trustee
	return nil
}

func (r *TrusteeRepository) find(match func(trusteedomain.Trustee) bool) (*trusteedomain.Trustee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, trustee := range r.s.trustees {
		if match(trustee) {
			found := trustee
			return &found, nil
		}
	}
	return nil, trusteedomain.ErrTrusteeNotFound
}

type NomineeRepository struct {
	s *Store
}

// Transaction only serializes fn against other transactions. There is no
// rollback: writes made before fn returns an error stay in the store.
func (r *NomineeRepository) Transaction(ctx context.Context, fn func(nomineedomain.Repository) error) error {
	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()
	return fn(r)
}

func (r *NomineeRepository) Create(ctx context.Context, nominee *nomineedomain.Nominee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.conflicts(nominee) {
		return nomineedomain.ErrDuplicateNominee
	}
	now := time.Now().UTC()
	nominee.CreatedAt = now
	nominee.UpdatedAt = now
	r.s.nominees[nominee.ID] = cloneNominee(*nominee)
	return nil
}

func (r *NomineeRepository) Save(ctx context.Context, nominee *nomineedomain.Nominee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.nominees[nominee.ID]; !ok {
		return nomineedomain.ErrNomineeNotFound
	}
	if r.conflicts(nominee) {
		return nomineedomain.ErrDuplicateNominee
	}
	nominee.UpdatedAt = time.Now().UTC()
	r.s.nominees[nominee.ID] = cloneNominee(*nominee)
	return nil
}

// conflicts mirrors the unique (user_id, lower(email)) and invitation_token indexes.
func (r *NomineeRepository) conflicts(nominee *nomineedomain.Nominee) bool {
	for _, existing := range r.s.nominees {
		if existing.ID == nominee.ID {
			continue
		}
		if existing.UserID == nominee.UserID && sameEmail(existing.Email, nominee.Email) {
			return true
		}
		if existing.InvitationToken != nil && nominee.InvitationToken != nil && *existing.InvitationToken == *nominee.InvitationToken {
			return true
		}
	}
	return false
}

func (r *NomineeRepository) Delete(ctx context.Context, ownerID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.nominees[id]
	if !ok || existing.UserID != ownerID {
		return nomineedomain.ErrNomineeNotFound
	}
	delete(r.s.nominees, id)
	return nil
}

func (r *NomineeRepository) GetByID(ctx context.Context, ownerID, id string) (*nomineedomain.Nominee, error) {
	return r.find(func(n nomineedomain.Nominee) bool { return n.ID == id && n.UserID == ownerID })
}

func (r *NomineeRepository) LockByID(ctx context.Context, ownerID, id string) (*nomineedomain.Nominee, error) {
	return r.GetByID(ctx, ownerID, id)
}

func (r *NomineeRepository) ListByOwner(ctx context.Context, ownerID string) ([]nomineedomain.Nominee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]nomineedomain.Nominee, 0)
	for _, nominee := range r.s.nominees {
		if nominee.UserID == ownerID {
			result = append(result, cloneNominee(nominee))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (r *NomineeRepository) GetByOwnerAndEmail(ctx context.Context, ownerID, email string) (*nomineedomain.Nominee, error) {
	return r.find(func(n nomineedomain.Nominee) bool { return n.UserID == ownerID && sameEmail(n.Email, email) })
}

func (r *NomineeRepository) GetByTokenHash(ctx context.Context, hash string) (*nomineedomain.Nominee, error) {
	return r.find(func(n nomineedomain.Nominee) bool { return n.InvitationToken != nil && *n.InvitationToken == hash })
}

func (r *NomineeRepository) LockByTokenHash(ctx context.Context, hash string) (*nomineedomain.Nominee, error) {
	return r.GetByTokenHash(ctx, hash)
}

func (r *NomineeRepository) find(match func(nomineedomain.Nominee) bool) (*nomineedomain.Nominee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, nominee := range r.s.nominees {
		if match(nominee) {
			found := cloneNominee(nominee)
			return &found, nil
		}
	}
	return nil, nomineedomain.ErrNomineeNotFound
}

func cloneNominee(nominee nomineedomain.Nominee) nomineedomain.Nominee {
	nominee.AccessCategories = append(pq.StringArray{}, nominee.AccessCategories...)
	return nominee
}
