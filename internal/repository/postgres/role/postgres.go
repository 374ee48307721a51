package role

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	roledomain "legacy-keeper-go/internal/domain/role"
	userdomain "legacy-keeper-go/internal/domain/user"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetRoleByName(ctx context.Context, name string) (*roledomain.Role, error) {
	var role roledomain.Role
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, roledomain.ErrRoleNotFound
		}
		return nil, err
	}
	return &role, nil
}

// UpsertAssignment relies on the unique (user_id, role_id, related_user_id) index;
// created is false when the row was already there.
func (r *PostgresRepository) UpsertAssignment(ctx context.Context, assignment *roledomain.Assignment) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(assignment)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *PostgresRepository) DeleteAssignment(ctx context.Context, userID, roleID, relatedUserID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ? AND related_user_id = ?", userID, roleID, relatedUserID).
		Delete(&roledomain.Assignment{}).Error
}

func (r *PostgresRepository) ListDelegations(ctx context.Context, userID string) ([]roledomain.Delegation, error) {
	type delegationRow struct {
		RoleName  string    `gorm:"column:role_name"`
		OwnerID   string    `gorm:"column:owner_id"`
		Email     *string   `gorm:"column:email"`
		Name      *string   `gorm:"column:name"`
		AvatarURL *string   `gorm:"column:avatar_url"`
		CreatedAt time.Time `gorm:"column:created_at"`
	}

	var rows []delegationRow
	if err := r.db.WithContext(ctx).
		Table("user_roles").
		Select("roles.name AS role_name, user_roles.related_user_id AS owner_id, user_profiles.email, user_profiles.name, user_profiles.avatar_url, user_roles.created_at").
		Joins("join roles on roles.id = user_roles.role_id").
		Joins("left join user_profiles on user_profiles.user_id = user_roles.related_user_id").
		Where("user_roles.user_id = ? AND user_roles.related_user_id IS NOT NULL", userID).
		Where("roles.name IN ?", []string{roledomain.NameNominee, roledomain.NameTrustee}).
		Order("user_roles.created_at asc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	delegations := make([]roledomain.Delegation, 0, len(rows))
	for _, row := range rows {
		owner := userdomain.Profile{UserID: row.OwnerID, Email: row.Email, Name: row.Name, AvatarURL: row.AvatarURL}
		delegations = append(delegations, roledomain.Delegation{
			RoleName:  row.RoleName,
			Owner:     owner.Public(),
			CreatedAt: row.CreatedAt,
		})
	}
	return delegations, nil
}
