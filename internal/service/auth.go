package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/aidar/service-catalog/internal/domain"
	"github.com/aidar/service-catalog/internal/repository"
)

// Claims represents JWT claims carrying the signed identity
type Claims struct {
	UserID string   `json:"user_id"`
	TeamID *string  `json:"team_id,omitempty"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// Identity converts the claims into the domain identity attached to requests
func (c *Claims) Identity() domain.Identity {
	return domain.Identity{
		UserID: c.UserID,
		TeamID: c.TeamID,
		Roles:  c.Roles,
	}
}

// RegisterInput carries the fields accepted on registration
type RegisterInput struct {
	Username string
	Email    string
	Password string
	TeamID   *string
}

// AuthResult is returned by Register and Login
type AuthResult struct {
	AccessToken string       `json:"access_token"`
	User        *domain.User `json:"user"`
}

// AuthService handles registration, authentication and JWT operations
type AuthService struct {
	db        repository.DBTX
	users     repository.UserRepository
	teams     repository.TeamRepository
	jwtSecret string
	jwtExpiry time.Duration
}

// NewAuthService creates a new AuthService
func NewAuthService(
	db repository.DBTX,
	users repository.UserRepository,
	teams repository.TeamRepository,
	jwtSecret string,
	jwtExpiry time.Duration,
) *AuthService {
	return &AuthService{
		db:        db,
		users:     users,
		teams:     teams,
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
	}
}

// Register creates a new user with a bcrypt password hash and returns a signed token.
// An unknown team id is ignored and the user is created without a team.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if input.Email == "" || input.Password == "" || input.Username == "" {
		return nil, fmt.Errorf("%w: email, password, and username are required", domain.ErrValidation)
	}

	exists, err := s.users.ExistsByEmail(ctx, s.db, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var teamID *string
	if input.TeamID != nil {
		ok, err := s.teams.Exists(ctx, s.db, *input.TeamID)
		if err != nil {
			return nil, err
		}
		if ok {
			teamID = input.TeamID
		}
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hash),
		Roles:        []string{domain.RoleUser},
		TeamID:       teamID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Insert(ctx, s.db, user); err != nil {
		return nil, err
	}

	token, err := s.sign(user)
	if err != nil {
		return nil, err
	}

	return &AuthResult{AccessToken: token, User: user}, nil
}

// Login verifies the credentials and returns a signed token
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, s.db, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrUnauthorized
	}

	token, err := s.sign(user)
	if err != nil {
		return nil, err
	}

	return &AuthResult{AccessToken: token, User: user}, nil
}

// ValidateToken validates a JWT token and returns its claims
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, domain.ErrInvalidToken
	}

	return claims, nil
}

// sign issues an HS256 token for the user
func (s *AuthService) sign(user *domain.User) (string, error) {
	claims := &Claims{
		UserID: user.ID,
		TeamID: user.TeamID,
		Roles:  user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.jwtExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}
