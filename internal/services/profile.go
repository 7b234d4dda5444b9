package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ai-shadow/shadow-backend/internal/errordata"
	"github.com/ai-shadow/shadow-backend/internal/logger"
	"github.com/ai-shadow/shadow-backend/internal/normalization"
	"github.com/ai-shadow/shadow-backend/internal/repos"
	"github.com/ai-shadow/shadow-backend/internal/types"
)

var errUserNotFound = errordata.NotFound("User not found")

// UpdateProfileInput holds optional changes. An empty Name and a nil or JSON
// null Preferences are treated as absent.
type UpdateProfileInput struct {
	Name        *string
	AvatarURL   *string
	Preferences json.RawMessage
}

type ProfileService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*types.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, in UpdateProfileInput) (*types.User, error)
}

type profileService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewProfileService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) ProfileService {
	return &profileService{
		db:       db,
		log:      log.With("service", "ProfileService"),
		userRepo: userRepo,
	}
}

func (ps *profileService) GetProfile(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	user, err := ps.userRepo.GetByIDWithStats(ctx, nil, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errUserNotFound
	}
	if err != nil {
		ps.log.Warn("Failed to load profile, Cannot proceed. Returning error.", "error", err)
		return nil, errordata.Internal("Error fetching profile", err)
	}
	return user, nil
}

func (ps *profileService) UpdateProfile(ctx context.Context, userID uuid.UUID, in UpdateProfileInput) (*types.User, error) {
	fields := map[string]interface{}{}
	if in.Name != nil {
		if name := normalization.TrimText(*in.Name); name != "" {
			fields["name"] = name
		}
	}
	if in.AvatarURL != nil {
		fields["avatar_url"] = normalization.TrimText(*in.AvatarURL)
	}
	if len(in.Preferences) > 0 && string(in.Preferences) != "null" {
		var obj map[string]interface{}
		if err := json.Unmarshal(in.Preferences, &obj); err != nil {
			return nil, errordata.Validation("Preferences must be a JSON object")
		}
		fields["preferences"] = datatypes.JSON(in.Preferences)
	}
	if len(fields) == 0 {
		return nil, errordata.Validation("No fields to update")
	}

	var updated *types.User
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if uErr := ps.userRepo.UpdateFields(ctx, tx, userID, fields); uErr != nil {
			if errors.Is(uErr, gorm.ErrRecordNotFound) {
				return errUserNotFound
			}
			ps.log.Warn("Failed to update profile, Cannot proceed. Returning error.", "error", uErr)
			return errordata.Internal("Error updating profile", uErr)
		}
		u, gErr := ps.userRepo.GetByID(ctx, tx, userID)
		if gErr != nil {
			return errordata.Internal("Error updating profile", gErr)
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
