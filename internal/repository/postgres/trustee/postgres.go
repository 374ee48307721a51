package trustee

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"legacy-keeper-go/internal/domain/invitation"
	trusteedomain "legacy-keeper-go/internal/domain/trustee"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(trusteedomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) Create(ctx context.Context, trustee *trusteedomain.Trustee) error {
	err := r.db.WithContext(ctx).Create(trustee).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return trusteedomain.ErrDuplicateTrustee
	}
	return err
}

func (r *PostgresRepository) Save(ctx context.Context, trustee *trusteedomain.Trustee) error {
	return r.db.WithContext(ctx).Save(trustee).Error
}

func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id string) error {
	if !validIDs(ownerID, id) {
		return trusteedomain.ErrTrusteeNotFound
	}
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&trusteedomain.Trustee{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return trusteedomain.ErrTrusteeNotFound
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, ownerID, id string) (*trusteedomain.Trustee, error) {
	if !validIDs(ownerID, id) {
		return nil, trusteedomain.ErrTrusteeNotFound
	}
	return r.first(r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID))
}

func (r *PostgresRepository) LockByID(ctx context.Context, id string) (*trusteedomain.Trustee, error) {
	if !validIDs(id) {
		return nil, trusteedomain.ErrTrusteeNotFound
	}
	return r.first(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id))
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]trusteedomain.Trustee, error) {
	var trustees []trusteedomain.Trustee
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at asc").
		Find(&trustees).Error; err != nil {
		return nil, err
	}
	return trustees, nil
}

func (r *PostgresRepository) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&trusteedomain.Trustee{}).
		Where("user_id = ?", ownerID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresRepository) GetByOwnerAndEmail(ctx context.Context, ownerID, email string) (*trusteedomain.Trustee, error) {
	return r.first(r.db.WithContext(ctx).Where("user_id = ? AND LOWER(email) = LOWER(?)", ownerID, email))
}

func (r *PostgresRepository) LatestForEmail(ctx context.Context, email string) (*trusteedomain.Trustee, error) {
	return r.first(r.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?)", email).
		Order("CASE WHEN status = '" + string(invitation.StatusPending) + "' THEN 0 ELSE 1 END, created_at DESC"))
}

func (r *PostgresRepository) GetByTokenHash(ctx context.Context, hash string) (*trusteedomain.Trustee, error) {
	return r.first(r.db.WithContext(ctx).Where("invitation_token = ?", hash))
}

func (r *PostgresRepository) SetStatus(ctx context.Context, id string, status invitation.Status, respondedAt time.Time) error {
	if !validIDs(id) {
		return trusteedomain.ErrTrusteeNotFound
	}
	result := r.db.WithContext(ctx).
		Model(&trusteedomain.Trustee{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":                  status,
			"invitation_responded_at": respondedAt,
			"updated_at":              time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return trusteedomain.ErrTrusteeNotFound
	}
	return nil
}

func (r *PostgresRepository) first(query *gorm.DB) (*trusteedomain.Trustee, error) {
	var trustee trusteedomain.Trustee
	if err := query.First(&trustee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, trusteedomain.ErrTrusteeNotFound
		}
		return nil, err
	}
	return &trustee, nil
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
