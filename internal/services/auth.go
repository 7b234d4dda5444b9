package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ai-shadow/shadow-backend/internal/errordata"
	"github.com/ai-shadow/shadow-backend/internal/logger"
	"github.com/ai-shadow/shadow-backend/internal/normalization"
	"github.com/ai-shadow/shadow-backend/internal/repos"
	"github.com/ai-shadow/shadow-backend/internal/requestdata"
	"github.com/ai-shadow/shadow-backend/internal/types"
	"github.com/ai-shadow/shadow-backend/internal/utils"
)

const (
	sideEffectTimeout   = 15 * time.Second
	invalidTokenMessage = "Invalid or expired token."
)

var errEmailTaken = errordata.Conflict("User with this email already exists")

type JWTClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// TokenClaims is the verified identity carried by a session token.
type TokenClaims struct {
	UserID uuid.UUID
	Email  string
}

type AuthResult struct {
	Token string
	User  *types.User
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Verify(ctx context.Context, tokenString string) (*TokenClaims, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetTokenTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userStatsRepo repos.UserStatsRepo
	avatarService AvatarService
	emailService  EmailService
	jwtSecretKey  string
	tokenTTL      time.Duration
	now           func() time.Time
}

// NewAuthService wires the auth flow. avatarService and emailService may be
// nil, in which case registration skips those steps.
func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userStatsRepo repos.UserStatsRepo,
	avatarService AvatarService,
	emailService EmailService,
	jwtSecretKey string,
	tokenTTL time.Duration,
) AuthService {
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		userRepo:      userRepo,
		userStatsRepo: userStatsRepo,
		avatarService: avatarService,
		emailService:  emailService,
		jwtSecretKey:  jwtSecretKey,
		tokenTTL:      tokenTTL,
		now:           time.Now,
	}
}

func (as *authService) GetTokenTTL() time.Duration {
	return as.tokenTTL
}

func (as *authService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	//1) Normalize and validate
	name := normalization.TrimText(in.Name)
	email := normalization.ParseEmail(in.Email)
	if vErr := utils.ValidateRegistration(utils.RegistrationInput{Name: name, Email: email, Password: in.Password}); vErr != nil {
		return nil, vErr
	}

	//2) Hash outside the transaction
	hashed, hErr := utils.HashPassword(in.Password)
	if hErr != nil {
		as.log.Warn("Failed to hash password, Cannot proceed. Returning error.", "error", hErr)
		return nil, errordata.Internal("Error registering user", hErr)
	}

	//3) Create user and stats together
	var user *types.User
	if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, eErr := as.userRepo.EmailExists(ctx, tx, email)
		if eErr != nil {
			as.log.Warn("Failed to check email existence, Cannot proceed. Returning error.", "error", eErr)
			return errordata.Internal("Error registering user", eErr)
		}
		if exists {
			return errEmailTaken
		}
		created, cErr := as.userRepo.Create(ctx, tx, &types.User{Name: name, Email: email, Password: hashed})
		if cErr != nil {
			if errors.Is(cErr, gorm.ErrDuplicatedKey) {
				return errEmailTaken
			}
			as.log.Warn("Failed to create user, Cannot proceed. Returning error.", "error", cErr)
			return errordata.Internal("Error registering user", cErr)
		}
		if _, sErr := as.userStatsRepo.Create(ctx, tx, &types.UserStats{UserID: created.ID, LastActive: as.now()}); sErr != nil {
			as.log.Warn("Failed to create user stats, Cannot proceed. Returning error.", "error", sErr)
			return errordata.Internal("Error registering user", sErr)
		}
		user = created
		return nil
	}); err != nil {
		return nil, err
	}

	//4) Best-effort extras, never fail the registration
	as.runSideEffects(ctx, user)

	//5) Token
	token, tErr := as.generateToken(user)
	if tErr != nil {
		as.log.Warn("Generate Token Error, Cannot proceed. Returning error.", "error", tErr)
		return nil, errordata.Internal("Error registering user", tErr)
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (as *authService) runSideEffects(ctx context.Context, user *types.User) {
	if as.avatarService == nil && as.emailService == nil {
		return
	}
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	if as.avatarService != nil {
		if err := as.avatarService.CreateAndUploadUserAvatar(sctx, nil, user); err != nil {
			as.log.Warn("Avatar generation failed, continuing without one", "userID", user.ID, "error", err)
		}
	}
	if as.emailService != nil {
		if err := as.emailService.SendWelcome(sctx, user); err != nil {
			as.log.Warn("Welcome email failed", "userID", user.ID, "error", err)
		}
	}
}

func (as *authService) Login(ctx context.Context, rawEmail, password string) (*AuthResult, error) {
	//1) Normalize and validate
	email := normalization.ParseEmail(rawEmail)
	if vErr := utils.ValidateLogin(utils.LoginInput{Email: email, Password: password}); vErr != nil {
		return nil, vErr
	}

	//2) Find user and check password
	user, uErr := as.userRepo.GetByEmail(ctx, nil, email)
	if errors.Is(uErr, gorm.ErrRecordNotFound) {
		as.log.Info("Login attempt for unknown email")
		return nil, errordata.InvalidCredentials()
	}
	if uErr != nil {
		as.log.Warn("Failure to retrieve user by email, Cannot proceed. Returning error.", "error", uErr)
		return nil, errordata.Internal("Error logging in", uErr)
	}
	if !utils.CheckPassword(user.Password, password) {
		as.log.Info("Login attempt with wrong password", "userID", user.ID)
		return nil, errordata.InvalidCredentials()
	}

	//3) Activity
	if tErr := as.userStatsRepo.TouchLastActive(ctx, nil, user.ID, as.now()); tErr != nil {
		as.log.Warn("Failed to update last_active", "userID", user.ID, "error", tErr)
	}

	//4) Token
	token, gErr := as.generateToken(user)
	if gErr != nil {
		as.log.Warn("Generate Token Error, Cannot proceed. Returning error.", "error", gErr)
		return nil, errordata.Internal("Error logging in", gErr)
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (as *authService) Verify(ctx context.Context, tokenString string) (*TokenClaims, error) {
	if tokenString == "" {
		return nil, errordata.Unauthorized(invalidTokenMessage, fmt.Errorf("empty token"))
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(as.now),
	)
	if err != nil {
		return nil, errordata.Unauthorized(invalidTokenMessage, err)
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return nil, errordata.Unauthorized(invalidTokenMessage, fmt.Errorf("invalid token claims"))
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, errordata.Unauthorized(invalidTokenMessage, fmt.Errorf("invalid user ID in token: %w", err))
	}
	return &TokenClaims{UserID: userID, Email: claims.Email}, nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	claims, err := as.Verify(ctx, tokenString)
	if err != nil {
		return ctx, err
	}
	rd := &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      claims.UserID,
		Email:       claims.Email,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) generateToken(user *types.User) (string, error) {
	now := as.now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: user.ID.String(),
		Email:  user.Email,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}
