package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/keramy/formulapmv2-sub007/internal/pm/entity"
	"github.com/keramy/formulapmv2-sub007/internal/pm/repository"
	"golang.org/x/crypto/bcrypt"
)

// AuthService login and token issuance
type AuthService struct {
	userRepo  *repository.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(userRepo *repository.UserRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{userRepo: userRepo, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

// LoginRequest credentials payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResult token plus the authenticated user
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *entity.User `json:"user"`
}

// Login verifies credentials and issues a signed JWT
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(s.tokenTTL)
	claims := jwt.MapClaims{
		"uid":   user.ID,
		"name":  user.Name,
		"email": user.Email,
		"role":  user.Role,
		"exp":   expiresAt.Unix(),
		"iat":   time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// CreateUserRequest admin-created account payload
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required,max=100"`
	Role     string `json:"role" binding:"required"`
	Company  string `json:"company" binding:"max=200"`
	Phone    string `json:"phone" binding:"max=50"`
}

// CreateUser registers a new account with a hashed password
func (s *AuthService) CreateUser(ctx context.Context, req *CreateUserRequest) (*entity.User, error) {
	if !entity.IsManagementRole(req.Role) && !entity.HasAssignedScope(req.Role) && req.Role != entity.RoleClient {
		return nil, &ValidationError{Field: "role", Message: "unknown role"}
	}
	if _, err := s.userRepo.FindByEmail(ctx, req.Email); err == nil {
		return nil, NewBusinessRuleError("email %s is already registered", req.Email)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entity.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Role:         req.Role,
		Company:      req.Company,
		Phone:        req.Phone,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers pages through accounts
func (s *AuthService) ListUsers(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.User, int64, error) {
	return s.userRepo.FindAll(ctx, page, pageSize, filters)
}

// SeedAdmin creates a default administrator when the user table is empty
func (s *AuthService) SeedAdmin(ctx context.Context, email, password string) error {
	count, err := s.userRepo.CountAll(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err = s.CreateUser(ctx, &CreateUserRequest{
		Email:    email,
		Password: password,
		Name:     "Administrator",
		Role:     entity.RoleAdmin,
	})
	return err
}
