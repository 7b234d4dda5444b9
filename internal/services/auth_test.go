package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/ai-shadow/shadow-backend/internal/errordata"
	"github.com/ai-shadow/shadow-backend/internal/logger"
	"github.com/ai-shadow/shadow-backend/internal/repos"
	"github.com/ai-shadow/shadow-backend/internal/requestdata"
	"github.com/ai-shadow/shadow-backend/internal/testutil"
	"github.com/ai-shadow/shadow-backend/internal/types"
)

const testSecret = "test-secret"

type recordingEmail struct {
	welcomed []string
}

func (r *recordingEmail) SendEmail(ctx context.Context, toEmail, toName, subject, plainText, htmlContent string) error {
	return nil
}

func (r *recordingEmail) SendWelcome(ctx context.Context, user *types.User) error {
	r.welcomed = append(r.welcomed, user.Email)
	return nil
}

type AuthServiceSuite struct {
	suite.Suite
	ctx   context.Context
	db    *gorm.DB
	stats repos.UserStatsRepo
	email *recordingEmail
	svc   AuthService
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testutil.NewDB(s.T())
	log := logger.NewNop()
	s.stats = repos.NewUserStatsRepo(s.db, log)
	s.email = &recordingEmail{}
	s.svc = NewAuthService(s.db, log, repos.NewUserRepo(s.db, log), s.stats, nil, s.email, testSecret, 30*24*time.Hour)
}

func (s *AuthServiceSuite) register(email string) *AuthResult {
	res, err := s.svc.Register(s.ctx, RegisterInput{Name: "Ada Lovelace", Email: email, Password: "secret1"})
	s.Require().NoError(err)
	return res
}

func (s *AuthServiceSuite) TestRegister() {
	res := s.register("  Ada@Example.COM ")

	s.Equal("ada@example.com", res.User.Email)
	s.NotEqual("secret1", res.User.Password)
	s.NotEmpty(res.Token)

	stats, err := s.stats.GetByUserID(s.ctx, nil, res.User.ID)
	s.Require().NoError(err)
	s.Zero(stats.TotalChats)
	s.Equal(types.ChatModeGeneral, stats.FavoriteMode)
	s.Equal([]string{"ada@example.com"}, s.email.welcomed)

	claims, err := s.svc.Verify(s.ctx, res.Token)
	s.Require().NoError(err)
	s.Equal(res.User.ID, claims.UserID)
	s.Equal("ada@example.com", claims.Email)
}

func (s *AuthServiceSuite) TestRegisterDuplicateEmail() {
	s.register("ada@example.com")
	_, err := s.svc.Register(s.ctx, RegisterInput{Name: "Other", Email: "ADA@example.com", Password: "secret2"})
	s.Equal(errordata.KindConflict, errordata.KindOf(err))
	s.Equal("User with this email already exists", errordata.PublicMessage(err))
}

func (s *AuthServiceSuite) TestRegisterValidation() {
	_, err := s.svc.Register(s.ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "123"})
	s.Equal(errordata.KindValidation, errordata.KindOf(err))

	_, err = s.svc.Register(s.ctx, RegisterInput{Email: "ada@example.com", Password: "secret1"})
	s.Equal(errordata.KindValidation, errordata.KindOf(err))
}

func (s *AuthServiceSuite) TestLogin() {
	s.register("ada@example.com")

	res, err := s.svc.Login(s.ctx, "ADA@example.com", "secret1")
	s.Require().NoError(err)
	s.Equal("ada@example.com", res.User.Email)
	s.NotEmpty(res.Token)

	_, err = s.svc.Login(s.ctx, "ada@example.com", "wrong-password")
	s.Equal(errordata.KindInvalidCredentials, errordata.KindOf(err))
	s.Equal("Invalid email or password", errordata.PublicMessage(err))

	_, err = s.svc.Login(s.ctx, "nobody@example.com", "secret1")
	s.Equal(errordata.KindInvalidCredentials, errordata.KindOf(err))
	s.Equal("Invalid email or password", errordata.PublicMessage(err))

	_, err = s.svc.Login(s.ctx, "ada@example.com", "")
	s.Equal(errordata.KindValidation, errordata.KindOf(err))
}

func (s *AuthServiceSuite) TestLoginTouchesLastActive() {
	res := s.register("ada@example.com")
	later := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	s.svc.(*authService).now = func() time.Time { return later }

	_, err := s.svc.Login(s.ctx, "ada@example.com", "secret1")
	s.Require().NoError(err)

	stats, err := s.stats.GetByUserID(s.ctx, nil, res.User.ID)
	s.Require().NoError(err)
	s.WithinDuration(later, stats.LastActive, time.Second)
}

func (s *AuthServiceSuite) TestVerifyRejectsExpired() {
	res := s.register("ada@example.com")
	s.svc.(*authService).now = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }

	_, err := s.svc.Verify(s.ctx, res.Token)
	s.Equal(errordata.KindUnauthorized, errordata.KindOf(err))
}

func (s *AuthServiceSuite) TestVerifyRejectsForeignSignatureAndAlg() {
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		UserID:           uuid.NewString(),
		Email:            "x@example.com",
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	s.Require().NoError(err)
	_, err = s.svc.Verify(s.ctx, forged)
	s.Equal(errordata.KindUnauthorized, errordata.KindOf(err))

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	s.Require().NoError(err)
	_, err = s.svc.Verify(s.ctx, unsigned)
	s.Equal(errordata.KindUnauthorized, errordata.KindOf(err))

	_, err = s.svc.Verify(s.ctx, "")
	s.Equal(errordata.KindUnauthorized, errordata.KindOf(err))
}

func (s *AuthServiceSuite) TestSetContextFromToken() {
	res := s.register("ada@example.com")
	ctx, err := s.svc.SetContextFromToken(s.ctx, res.Token)
	s.Require().NoError(err)
	s.Equal(res.User.ID, requestdata.UserID(ctx))
	s.Equal(res.Token, requestdata.GetRequestData(ctx).TokenString)
}
