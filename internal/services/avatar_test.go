package services

import (
	"bytes"
	"context"
	"image/png"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai-shadow/shadow-backend/internal/logger"
	"github.com/ai-shadow/shadow-backend/internal/repos"
	"github.com/ai-shadow/shadow-backend/internal/testutil"
	"github.com/ai-shadow/shadow-backend/internal/types"
)

type fakeBucket struct {
	uploads map[string][]byte
}

func (f *fakeBucket) UploadFile(ctx context.Context, key string, r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.uploads[key] = b
	return nil
}

func (f *fakeBucket) GetPublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

func (f *fakeBucket) Close() error { return nil }

func TestComputeInitials(t *testing.T) {
	cases := map[string]string{
		"Ada Lovelace":             "AL",
		"ada":                      "A",
		"  grace  brewster hopper": "GB",
		"":                         "?",
		"élodie durand":            "ÉD",
	}
	for in, want := range cases {
		assert.Equal(t, want, computeInitials(in), in)
	}
}

func TestPickAvatarColorIsStable(t *testing.T) {
	assert.Equal(t, pickAvatarColor("user-1"), pickAvatarColor("user-1"))
}

func TestCreateAndUploadUserAvatar(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	log := logger.NewNop()
	userRepo := repos.NewUserRepo(db, log)
	bucket := &fakeBucket{uploads: map[string][]byte{}}

	svc, err := NewAvatarService(log, userRepo, bucket)
	require.NoError(t, err)

	user, err := userRepo.Create(ctx, nil, &types.User{Name: "Ada Lovelace", Email: "ada@example.com", Password: "hash"})
	require.NoError(t, err)

	require.NoError(t, svc.CreateAndUploadUserAvatar(ctx, nil, user))

	key := "user_avatars/" + user.ID.String() + ".png"
	require.Contains(t, bucket.uploads, key)
	img, err := png.Decode(bytes.NewReader(bucket.uploads[key]))
	require.NoError(t, err)
	assert.Equal(t, AvatarSize, img.Bounds().Dx())
	assert.Equal(t, AvatarSize, img.Bounds().Dy())

	stored, err := userRepo.GetByID(ctx, nil, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/"+key, stored.AvatarURL)
	assert.Equal(t, key, stored.AvatarBucketKey)
}
