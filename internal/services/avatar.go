package services

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"image/color"
	"strings"
	"unicode"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"gorm.io/gorm"

	"github.com/ai-shadow/shadow-backend/internal/logger"
	"github.com/ai-shadow/shadow-backend/internal/repos"
	"github.com/ai-shadow/shadow-backend/internal/types"
)

const (
	avatarCanvasSize = 512
	AvatarSize       = 256
)

var avatarColors = []color.NRGBA{
	{R: 0x63, G: 0x66, B: 0xf1, A: 0xff},
	{R: 0x8b, G: 0x5c, B: 0xf6, A: 0xff},
	{R: 0xec, G: 0x48, B: 0x99, A: 0xff},
	{R: 0x0e, G: 0xa5, B: 0xe9, A: 0xff},
	{R: 0x10, G: 0xb9, B: 0x81, A: 0xff},
	{R: 0xf5, G: 0x9e, B: 0x0b, A: 0xff},
	{R: 0xef, G: 0x44, B: 0x44, A: 0xff},
	{R: 0x14, G: 0xb8, B: 0xa6, A: 0xff},
}

type AvatarService interface {
	CreateAndUploadUserAvatar(ctx context.Context, tx *gorm.DB, user *types.User) error
	GenerateInitialsAvatar(seed, name string) (bytes.Buffer, error)
}

type avatarService struct {
	log           *logger.Logger
	userRepo      repos.UserRepo
	bucketService BucketService
	fontFace      font.Face
}

func NewAvatarService(log *logger.Logger, userRepo repos.UserRepo, bucketService BucketService) (AvatarService, error) {
	face, err := loadFontFace(goregular.TTF, 206)
	if err != nil {
		return nil, fmt.Errorf("could not load avatar font: %w", err)
	}
	return &avatarService{
		log:           log.With("service", "AvatarService"),
		userRepo:      userRepo,
		bucketService: bucketService,
		fontFace:      face,
	}, nil
}

func (as *avatarService) CreateAndUploadUserAvatar(ctx context.Context, tx *gorm.DB, user *types.User) error {
	buf, err := as.GenerateInitialsAvatar(user.ID.String(), user.Name)
	if err != nil {
		return err
	}
	bucketKey := fmt.Sprintf("user_avatars/%s.png", user.ID.String())
	if err := as.bucketService.UploadFile(ctx, bucketKey, bytes.NewReader(buf.Bytes())); err != nil {
		return fmt.Errorf("failed to upload user avatar: %w", err)
	}
	finalURL := as.bucketService.GetPublicURL(bucketKey)
	if err := as.userRepo.UpdateFields(ctx, tx, user.ID, map[string]interface{}{
		"avatar_url":        finalURL,
		"avatar_bucket_key": bucketKey,
	}); err != nil {
		as.log.Warn("Failed to store avatar url, Cannot proceed. Returning error.", "error", err)
		return fmt.Errorf("failed to store avatar url: %w", err)
	}
	user.AvatarBucketKey = bucketKey
	user.AvatarURL = finalURL
	return nil
}

// GenerateInitialsAvatar renders a round PNG with the initials of name on a
// background colour picked from seed, so the same user always gets the same colour.
func (as *avatarService) GenerateInitialsAvatar(seed, name string) (bytes.Buffer, error) {
	const size = avatarCanvasSize

	// 1) Circular mask
	dc := gg.NewContext(size, size)
	dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
	dc.Clip()

	// 2) Solid background
	dc.SetColor(pickAvatarColor(seed))
	dc.DrawRectangle(0, 0, float64(size), float64(size))
	dc.Fill()

	// 3) Initials
	dc.SetFontFace(as.fontFace)
	dc.SetColor(color.White)
	dc.DrawStringAnchored(computeInitials(name), float64(size)/2, float64(size)/2, 0.5, 0.35)

	// 4) Downscale and encode
	img := imaging.Resize(dc.Image(), AvatarSize, AvatarSize, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return buf, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf, nil
}

//----------------------------------------------------------------------------------------
// Helpers
//----------------------------------------------------------------------------------------
func pickAvatarColor(seed string) color.NRGBA {
	h := fnv.New32a()
	_, _ = h.Write([]byte(seed))
	return avatarColors[h.Sum32()%uint32(len(avatarColors))]
}

func computeInitials(name string) string {
	var out []rune
	for _, word := range strings.Fields(name) {
		r := []rune(word)[0]
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		out = append(out, unicode.ToUpper(r))
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 {
		return "?"
	}
	return string(out)
}

func loadFontFace(ttf []byte, size float64) (font.Face, error) {
	parsedFont, err := truetype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	return truetype.NewFace(parsedFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	}), nil
}
