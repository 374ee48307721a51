package nominee

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	nomineedomain "legacy-keeper-go/internal/domain/nominee"
)

func TestMalformedIDsAreNotFound(t *testing.T) {
	repo := NewPostgres(nil)
	ctx := context.Background()
	owner := uuid.NewString()

	if _, err := repo.GetByID(ctx, owner, "abc"); !errors.Is(err, nomineedomain.ErrNomineeNotFound) {
		t.Fatalf("get: expected ErrNomineeNotFound, got %v", err)
	}
	if _, err := repo.LockByID(ctx, owner, "1; drop table nominees"); !errors.Is(err, nomineedomain.ErrNomineeNotFound) {
		t.Fatalf("lock: expected ErrNomineeNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, "dev-user", uuid.NewString()); !errors.Is(err, nomineedomain.ErrNomineeNotFound) {
		t.Fatalf("delete: expected ErrNomineeNotFound, got %v", err)
	}
}
