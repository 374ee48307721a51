package nominee

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	nomineedomain "legacy-keeper-go/internal/domain/nominee"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(nomineedomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) Create(ctx context.Context, nominee *nomineedomain.Nominee) error {
	err := r.db.WithContext(ctx).Create(nominee).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nomineedomain.ErrDuplicateNominee
	}
	return err
}

func (r *PostgresRepository) Save(ctx context.Context, nominee *nomineedomain.Nominee) error {
	err := r.db.WithContext(ctx).Save(nominee).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nomineedomain.ErrDuplicateNominee
	}
	return err
}

func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id string) error {
	if !validIDs(ownerID, id) {
		return nomineedomain.ErrNomineeNotFound
	}
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&nomineedomain.Nominee{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return nomineedomain.ErrNomineeNotFound
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, ownerID, id string) (*nomineedomain.Nominee, error) {
	if !validIDs(ownerID, id) {
		return nil, nomineedomain.ErrNomineeNotFound
	}
	return r.first(r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID))
}

func (r *PostgresRepository) LockByID(ctx context.Context, ownerID, id string) (*nomineedomain.Nominee, error) {
	if !validIDs(ownerID, id) {
		return nil, nomineedomain.ErrNomineeNotFound
	}
	return r.first(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ?", id, ownerID))
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]nomineedomain.Nominee, error) {
	var nominees []nomineedomain.Nominee
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at asc").
		Find(&nominees).Error; err != nil {
		return nil, err
	}
	return nominees, nil
}

func (r *PostgresRepository) GetByOwnerAndEmail(ctx context.Context, ownerID, email string) (*nomineedomain.Nominee, error) {
	return r.first(r.db.WithContext(ctx).Where("user_id = ? AND LOWER(email) = LOWER(?)", ownerID, email))
}

func (r *PostgresRepository) GetByTokenHash(ctx context.Context, hash string) (*nomineedomain.Nominee, error) {
	return r.first(r.db.WithContext(ctx).Where("invitation_token = ?", hash))
}

func (r *PostgresRepository) LockByTokenHash(ctx context.Context, hash string) (*nomineedomain.Nominee, error) {
	return r.first(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("invitation_token = ?", hash))
}

func (r *PostgresRepository) first(query *gorm.DB) (*nomineedomain.Nominee, error) {
	var nominee nomineedomain.Nominee
	if err := query.First(&nominee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nomineedomain.ErrNomineeNotFound
		}
		return nil, err
	}
	return &nominee, nil
}

// validIDs reports whether every id can be compared against a UUID column.
// Anything else cannot match a row and would fail the cast in Postgres.
func validIDs(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}
