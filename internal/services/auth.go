package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/traceleaf/dpp-backend/internal/apierr"
	"github.com/traceleaf/dpp-backend/internal/dpp"
	"github.com/traceleaf/dpp-backend/internal/logger"
	"github.com/traceleaf/dpp-backend/internal/repos"
	"github.com/traceleaf/dpp-backend/internal/requestdata"
	"github.com/traceleaf/dpp-backend/internal/types"
)

type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

type AuthService interface {
	RegisterUser(ctx context.Context, input RegisterInput) (*types.User, error)
	LoginUser(ctx context.Context, email, password string) (string, string, error)
	RefreshUser(ctx context.Context, refreshToken string) (string, string, error)
	LogoutUser(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	AccessTTL() time.Duration
}

type authService struct {
	db           *gorm.DB
	log          *logger.Logger
	userRepo     repos.UserRepo
	tokenRepo    repos.UserTokenRepo
	jwtSecretKey string
	accessTTL    time.Duration
	refreshTTL   time.Duration
}

func NewAuthService(
	db *gorm.DB,
	baseLog *logger.Logger,
	userRepo repos.UserRepo,
	tokenRepo repos.UserTokenRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	return &authService{
		db:           db,
		log:          baseLog.With("service", "AuthService"),
		userRepo:     userRepo,
		tokenRepo:    tokenRepo,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
		refreshTTL:   refreshTTL,
	}
}

func (as *authService) RegisterUser(ctx context.Context, input RegisterInput) (*types.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apierr.Validation("a valid email is required to register")
	}
	if len(input.Password) < 8 {
		return nil, apierr.Validation("password must be at least 8 characters")
	}
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return nil, apierr.Validation("first and last name are required")
	}
	role := strings.TrimSpace(input.Role)
	if role == "" {
		role = dpp.RoleManufacturer
	}
	if !dpp.ValidRole(role) {
		return nil, apierr.Validation("unknown role %q", role)
	}

	exists, err := as.userRepo.EmailExists(ctx, nil, email)
	if err != nil {
		return nil, fmt.Errorf("Failed to check user email: %w", err)
	}
	if exists {
		return nil, apierr.Conflict("email is already in use")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("Failed to hash password: %w", err)
	}

	now := time.Now()
	user := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  string(hashed),
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := as.userRepo.Create(ctx, nil, []*types.User{user}); err != nil {
		return nil, fmt.Errorf("Failed to create user: %w", err)
	}
	return user, nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (string, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", "", apierr.Validation("email and password are required")
	}

	user, err := as.userRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		return "", "", fmt.Errorf("Failed to fetch user by email: %w", err)
	}
	if user == nil {
		return "", "", apierr.Unauthorized("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", "", apierr.Unauthorized("invalid email or password")
	}

	var accessToken, refreshToken string
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := as.tokenRepo.DeleteByUserID(ctx, tx, user.ID); err != nil {
			return fmt.Errorf("Failed to clear previous tokens: %w", err)
		}
		var issueErr error
		accessToken, refreshToken, issueErr = as.issueTokens(ctx, tx, user)
		return issueErr
	})
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func (as *authService) RefreshUser(ctx context.Context, refreshToken string) (string, string, error) {
	if refreshToken == "" {
		return "", "", apierr.Unauthorized("missing refresh token")
	}
	stored, err := as.tokenRepo.GetByRefreshToken(ctx, nil, refreshToken)
	if err != nil {
		return "", "", fmt.Errorf("Failed to fetch refresh token: %w", err)
	}
	if stored == nil {
		return "", "", apierr.Unauthorized("unknown refresh token")
	}
	if stored.ExpiresAt.Before(time.Now()) {
		return "", "", apierr.Unauthorized("refresh token expired")
	}
	user, err := as.userRepo.GetByID(ctx, nil, stored.UserID)
	if err != nil {
		return "", "", fmt.Errorf("Failed to fetch user for refresh: %w", err)
	}
	if user == nil {
		return "", "", apierr.Unauthorized("user no longer exists")
	}

	var accessToken, newRefresh string
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := as.tokenRepo.DeleteByUserID(ctx, tx, user.ID); err != nil {
			return fmt.Errorf("Failed to rotate tokens: %w", err)
		}
		var issueErr error
		accessToken, newRefresh, issueErr = as.issueTokens(ctx, tx, user)
		return issueErr
	})
	if err != nil {
		return "", "", err
	}
	return accessToken, newRefresh, nil
}

func (as *authService) LogoutUser(ctx context.Context) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return apierr.Unauthorized("not authenticated")
	}
	if err := as.tokenRepo.DeleteByUserID(ctx, nil, rd.UserID); err != nil {
		return fmt.Errorf("Failed to delete user tokens: %w", err)
	}
	return nil
}

func (as *authService) AccessTTL() time.Duration {
	return as.accessTTL
}

// SetContextFromToken verifies the JWT and resolves the caller into request
// data. The role comes from the user row, never from the token claim, so a
// stale or forged claim cannot widen permissions.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil || !token.Valid {
		return ctx, apierr.Unauthorized("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ctx, apierr.Unauthorized("invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return ctx, apierr.Unauthorized("invalid subject claim")
	}
	user, err := as.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return ctx, fmt.Errorf("Failed to fetch user for token: %w", err)
	}
	if user == nil {
		return ctx, apierr.Unauthorized("user no longer exists")
	}
	rd := &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      user.ID,
		Role:        user.Role,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) issueTokens(ctx context.Context, tx *gorm.DB, user *types.User) (string, string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(as.accessTTL).Unix(),
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(as.jwtSecretKey))
	if err != nil {
		return "", "", fmt.Errorf("Failed to sign access token: %w", err)
	}
	refreshToken := uuid.New().String()
	userToken := &types.UserToken{
		ID:           uuid.New(),
		UserID:       user.ID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(as.refreshTTL),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := as.tokenRepo.Create(ctx, tx, []*types.UserToken{userToken}); err != nil {
		return "", "", fmt.Errorf("Failed to store user token: %w", err)
	}
	return accessToken, refreshToken, nil
}
