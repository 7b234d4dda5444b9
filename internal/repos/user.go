package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ai-shadow/shadow-backend/internal/logger"
	"github.com/ai-shadow/shadow-backend/internal/types"
)

type UserRepo interface {
	Create(ctx context.Context, tx *gorm.DB, user *types.User) (*types.User, error)
	GetByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error)
	GetByIDWithStats(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error)
	EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, userID uuid.UUID, fields map[string]interface{}) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) Create(ctx context.Context, tx *gorm.DB, user *types.User) (*types.User, error) {
	if tx == nil {
		tx = ur.db
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if len(user.Preferences) == 0 {
		user.Preferences = []byte("{}")
	}
	if err := tx.WithContext(ctx).Create(user).Error; err != nil {
		ur.log.Error("failed to create user", "error", err)
		return nil, err
	}
	return user, nil
}

// GetByID returns gorm.ErrRecordNotFound when no user has that id.
func (ur *userRepo) GetByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error) {
	if tx == nil {
		tx = ur.db
	}
	var u types.User
	if err := tx.WithContext(ctx).
		Where("id = ?", userID).
		First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (ur *userRepo) GetByIDWithStats(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error) {
	if tx == nil {
		tx = ur.db
	}
	var u types.User
	if err := tx.WithContext(ctx).
		Preload("Stats").
		Where("id = ?", userID).
		First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail expects an already normalised email.
func (ur *userRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error) {
	if tx == nil {
		tx = ur.db
	}
	var u types.User
	if err := tx.WithContext(ctx).
		Where("email = ?", email).
		First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (ur *userRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	_, err := ur.GetByEmail(ctx, tx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		ur.log.Error("failed to check email existence", "error", err)
		return false, err
	}
	return true, nil
}

func (ur *userRepo) UpdateFields(ctx context.Context, tx *gorm.DB, userID uuid.UUID, fields map[string]interface{}) error {
	if tx == nil {
		tx = ur.db
	}
	if len(fields) == 0 {
		return nil
	}
	res := tx.WithContext(ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		Updates(fields)
	if res.Error != nil {
		ur.log.Error("failed to update user", "error", res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
