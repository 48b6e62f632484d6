package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/onikinet/oniki-match/internal/db"
)

// ProfileRepository provides data access for user profiles.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// GetByID loads one user, active or not. Unknown IDs return ErrNotFound.
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "user", id)
	}
	return &u, nil
}

// GetActiveByIDs loads the active users among ids, in no particular order.
func (r *ProfileRepository) GetActiveByIDs(ctx context.Context, ids []string) ([]db.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []db.User
	err := r.db.WithContext(ctx).
		Where("id IN ? AND active = ?", ids, true).
		Find(&users).Error
	return users, err
}

// ProfilePatch lists the editable profile fields. Nil fields are left alone.
type ProfilePatch struct {
	Name       *string
	Company    *string
	JobTitle   *string
	Bio        *string
	Industries *[]string
	Interests  *[]string
	Goals      *[]string
}

// Update applies patch to user id and returns the stored row.
//
// Behavior:
//   - Only non-nil patch fields are written.
//   - Tag sets are written as given; callers normalize them first.
//   - Unknown or deactivated users return ErrNotFound.
func (r *ProfileRepository) Update(ctx context.Context, id string, patch ProfilePatch) (*db.User, error) {
	var out *db.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u db.User
		if err := tx.First(&u, "id = ? AND active = ?", id, true).Error; err != nil {
			return notFound(err, "user", id)
		}
		if patch.Name != nil {
			u.Name = *patch.Name
		}
		if patch.Company != nil {
			u.Company = *patch.Company
		}
		if patch.JobTitle != nil {
			u.JobTitle = *patch.JobTitle
		}
		if patch.Bio != nil {
			u.Bio = *patch.Bio
		}
		if patch.Industries != nil {
			u.Industries = *patch.Industries
		}
		if patch.Interests != nil {
			u.Interests = *patch.Interests
		}
		if patch.Goals != nil {
			u.Goals = *patch.Goals
		}
		if err := tx.Save(&u).Error; err != nil {
			return err
		}
		out = &u
		return nil
	})
	return out, err
}

// Deactivate soft-deletes a user. Deactivating twice is a no-op.
func (r *ProfileRepository) Deactivate(ctx context.Context, id string) error {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !u.Active {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", id).
		Update("active", false).Error
}
