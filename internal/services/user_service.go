package services

import (
	"context"
	"strings"

	"textile-backend/internal/apperr"
	"textile-backend/internal/auth"
	"textile-backend/internal/models"
	"textile-backend/internal/storage"
)

// UserService handles identity: signup, login and the admin-side user
// management. Tokens are minted here so handlers never touch the JWT secret.
type UserService struct {
	Users storage.UserStore
	JWT   *auth.JWTManager
}

func NewUserService(users storage.UserStore, jwtManager *auth.JWTManager) *UserService {
	return &UserService{Users: users, JWT: jwtManager}
}

func validRole(role string) bool {
	switch role {
	case models.RoleAdmin, models.RoleWarehouse, models.RoleLab, models.RoleViewer:
		return true
	}
	return false
}

// Signup registers a self-service account. It always lands in the viewer
// role; an admin promotes it afterwards.
func (s *UserService) Signup(ctx context.Context, req *models.SignupRequest) (*models.AuthResponse, error) {
	if req.Name == "" || req.Email == "" {
		return nil, apperr.Validation("name and email are required")
	}
	if len(req.Password) < 8 {
		return nil, apperr.Validation("password must be at least 8 characters")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if existing, err := s.Users.GetUserByEmail(ctx, email); err == nil && existing != nil {
		return nil, apperr.Validation("email is already registered")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Name:         req.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleViewer,
		IsActive:     true,
	}
	if err := s.Users.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	token, err := s.JWT.GenerateToken(u)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: u}, nil
}

// Login checks credentials and mints a token. Inactive accounts are refused
// even with a correct password.
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	u, err := s.Users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, apperr.PermissionDenied("invalid credentials")
	}
	if !auth.VerifyPassword(u.PasswordHash, req.Password) {
		return nil, apperr.PermissionDenied("invalid credentials")
	}
	if !u.IsActive {
		return nil, apperr.PermissionDenied("account is deactivated")
	}

	token, err := s.JWT.GenerateToken(u)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: u}, nil
}

// TokenForUser mints a fresh token for an already-verified identity. Used by
// the login fast path when the credential cache has settled the bcrypt check.
func (s *UserService) TokenForUser(ctx context.Context, id int) (*models.AuthResponse, error) {
	u, err := s.Users.GetUser(ctx, id)
	if err != nil {
		return nil, apperr.PermissionDenied("invalid credentials")
	}
	if !u.IsActive {
		return nil, apperr.PermissionDenied("account is deactivated")
	}
	token, err := s.JWT.GenerateToken(u)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: u}, nil
}

// CreateUser is the admin path: any role, active immediately.
func (s *UserService) CreateUser(ctx context.Context, req *models.CreateUserRequest, actor auth.Actor) (*models.User, error) {
	if !actor.Can().ManageUsers {
		return nil, apperr.PermissionDenied("role cannot manage users")
	}
	if req.Name == "" || req.Email == "" {
		return nil, apperr.Validation("name and email are required")
	}
	if len(req.Password) < 8 {
		return nil, apperr.Validation("password must be at least 8 characters")
	}
	if !validRole(req.Role) {
		return nil, apperr.Validation("unknown role")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if existing, err := s.Users.GetUserByEmail(ctx, email); err == nil && existing != nil {
		return nil, apperr.Validation("email is already registered")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Name:         req.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         req.Role,
		IsActive:     true,
	}
	if err := s.Users.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) GetUser(ctx context.Context, id int) (*models.User, error) {
	return s.Users.GetUser(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context, actor auth.Actor) ([]models.User, error) {
	if !actor.Can().ManageUsers {
		return nil, apperr.PermissionDenied("role cannot manage users")
	}
	return s.Users.ListUsers(ctx)
}

// SetActive flips account access. Deactivating does not revoke outstanding
// tokens; the auth middleware re-reads is_active from the claims only, so
// short token lifetimes bound the exposure.
func (s *UserService) SetActive(ctx context.Context, id int, active bool, actor auth.Actor) error {
	if !actor.Can().ManageUsers {
		return apperr.PermissionDenied("role cannot manage users")
	}
	if actor.UserID == id && !active {
		return apperr.Validation("cannot deactivate your own account")
	}
	return s.Users.SetUserActive(ctx, id, active)
}
