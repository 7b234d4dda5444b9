package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai-shadow/shadow-backend/internal/errordata"
	"github.com/ai-shadow/shadow-backend/internal/logger"
	"github.com/ai-shadow/shadow-backend/internal/repos"
	"github.com/ai-shadow/shadow-backend/internal/testutil"
	"github.com/ai-shadow/shadow-backend/internal/types"
)

func TestProfileService(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	log := logger.NewNop()
	userRepo := repos.NewUserRepo(db, log)
	statsRepo := repos.NewUserStatsRepo(db, log)
	svc := NewProfileService(db, log, userRepo)

	user, err := userRepo.Create(ctx, nil, &types.User{Name: "Ada", Email: "ada@example.com", Password: "hash"})
	require.NoError(t, err)
	_, err = statsRepo.Create(ctx, nil, &types.UserStats{UserID: user.ID, TotalChats: 3})
	require.NoError(t, err)

	t.Run("get with stats", func(t *testing.T) {
		got, err := svc.GetProfile(ctx, user.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Stats)
		assert.EqualValues(t, 3, got.Stats.TotalChats)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := svc.GetProfile(ctx, uuid.New())
		assert.Equal(t, errordata.KindNotFound, errordata.KindOf(err))
	})

	t.Run("nothing to update", func(t *testing.T) {
		blank := "   "
		_, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{Name: &blank, Preferences: json.RawMessage("null")})
		assert.Equal(t, errordata.KindValidation, errordata.KindOf(err))
		assert.Equal(t, "No fields to update", errordata.PublicMessage(err))
	})

	t.Run("preferences must be an object", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{Preferences: json.RawMessage(`[1,2]`)})
		assert.Equal(t, errordata.KindValidation, errordata.KindOf(err))
	})

	t.Run("update", func(t *testing.T) {
		name, avatar := "Ada L.", "https://img.example.com/a.png"
		got, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{
			Name:        &name,
			AvatarURL:   &avatar,
			Preferences: json.RawMessage(`{"theme":"dark"}`),
		})
		require.NoError(t, err)
		assert.Equal(t, "Ada L.", got.Name)
		assert.Equal(t, avatar, got.AvatarURL)
		assert.JSONEq(t, `{"theme":"dark"}`, string(got.Preferences))
	})

	t.Run("update missing user", func(t *testing.T) {
		name := "Ghost"
		_, err := svc.UpdateProfile(ctx, uuid.New(), UpdateProfileInput{Name: &name})
		assert.Equal(t, errordata.KindNotFound, errordata.KindOf(err))
	})
}
