package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tusharsharma89566/Edu-Learn/internal/config"
	"github.com/tusharsharma89566/Edu-Learn/internal/models"
	"github.com/tusharsharma89566/Edu-Learn/internal/repositories"
	"github.com/tusharsharma89566/Edu-Learn/internal/validator"
)

// TokenClaims are carried by every access token
type TokenClaims struct {
	Role  models.UserRole `json:"role"`
	Email string          `json:"email"`
	jwt.RegisteredClaims
}

type authService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	cfg       config.AuthConfig
}

func NewAuthService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, cfg config.AuthConfig) AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.BcryptCost < bcrypt.MinCost {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &authService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *authService) withTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// ===== ACCOUNTS =====

func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	s.logger.Info("Registering user", "username", req.Username, "email", req.Email)

	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	var user *models.User
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		created, err := s.createUser(ctx, tx, req)
		if err != nil {
			return err
		}
		user = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("User registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// EnsureUser registers the account unless its email is taken, reporting whether it was created
func (s *authService) EnsureUser(ctx context.Context, req *RegisterRequest) (*models.User, bool, error) {
	existing, err := s.repo.User().GetByEmail(ctx, nil, strings.ToLower(strings.TrimSpace(req.Email)))
	if err == nil {
		return existing, false, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, false, fmt.Errorf("failed to look up user: %w", err)
	}

	user, err := s.Register(ctx, req)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (s *authService) createUser(ctx context.Context, tx *gorm.DB, req *RegisterRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)

	exists, err := s.repo.User().ExistsByUsername(ctx, tx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, ErrDuplicateUsername
	}

	exists, err = s.repo.User().ExistsByEmail(ctx, tx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.NormalizeRole(req.Role),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		IsActive:     true,
	}
	if err := s.repo.User().Create(ctx, tx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByEmail(ctx, nil, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !user.IsActive {
		s.logger.Warn("Login attempt for inactive user", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}

	loginAt := now()
	if err := s.repo.User().UpdateLastLogin(ctx, nil, user.ID, loginAt); err != nil {
		s.logger.Warn("Failed to record last login", "user_id", user.ID, "error", err)
	} else {
		user.LastLogin = &loginAt
	}

	s.logger.Info("User logged in", "user_id", user.ID)
	return &LoginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

func (s *authService) Me(ctx context.Context, userID string) (*models.User, error) {
	return loadUser(ctx, s.repo, nil, userID)
}

// ===== TOKENS =====

func (s *authService) IssueToken(user *models.User) (string, time.Time, error) {
	issuedAt := now()
	expiresAt := issuedAt.Add(s.cfg.TokenTTL)

	claims := TokenClaims{
		Role:  user.Role,
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}

	var claims TokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	user, err := loadUser(ctx, s.repo, nil, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidToken
	}
	return user, nil
}
