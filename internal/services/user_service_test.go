package services

import (
	"context"
	"testing"

	"textile-backend/internal/apperr"
	"textile-backend/internal/auth"
	"textile-backend/internal/config"
	"textile-backend/internal/models"
	"textile-backend/internal/storage/memory"
)

func newUserService() *UserService {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpirationHours = 1
	cfg.JWT.Issuer = "test"
	return NewUserService(memory.NewStore(), auth.NewJWTManager(cfg))
}

func TestSignupAndLogin(t *testing.T) {
	svc := newUserService()
	ctx := context.Background()

	resp, err := svc.Signup(ctx, &models.SignupRequest{
		Name:     "Ulugbek",
		Email:    "  Ulugbek@Example.com ",
		Password: "sufficiently-long",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected token")
	}
	if resp.User.Role != models.RoleViewer {
		t.Fatalf("expected viewer role on self-signup, got %s", resp.User.Role)
	}

	// Email is normalized, so login with the canonical form succeeds.
	login, err := svc.Login(ctx, &models.LoginRequest{Email: "ulugbek@example.com", Password: "sufficiently-long"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.User.ID != resp.User.ID {
		t.Fatalf("login returned user %d, want %d", login.User.ID, resp.User.ID)
	}

	_, err = svc.Login(ctx, &models.LoginRequest{Email: "ulugbek@example.com", Password: "wrong"})
	wantKind(t, err, apperr.KindPermissionDenied)
}

func TestSignupValidation(t *testing.T) {
	svc := newUserService()
	ctx := context.Background()

	_, err := svc.Signup(ctx, &models.SignupRequest{Name: "X", Email: "x@example.com", Password: "short"})
	wantKind(t, err, apperr.KindValidation)

	if _, err := svc.Signup(ctx, &models.SignupRequest{Name: "X", Email: "x@example.com", Password: "long-enough-pw"}); err != nil {
		t.Fatalf("signup: %v", err)
	}
	_, err = svc.Signup(ctx, &models.SignupRequest{Name: "Y", Email: "x@example.com", Password: "long-enough-pw"})
	wantKind(t, err, apperr.KindValidation)
}

func TestInactiveAccountRefused(t *testing.T) {
	svc := newUserService()
	ctx := context.Background()
	admin := auth.Actor{UserID: 99, Role: models.RoleAdmin}

	resp, err := svc.Signup(ctx, &models.SignupRequest{Name: "X", Email: "x@example.com", Password: "long-enough-pw"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if err := svc.SetActive(ctx, resp.User.ID, false, admin); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	_, err = svc.Login(ctx, &models.LoginRequest{Email: "x@example.com", Password: "long-enough-pw"})
	wantKind(t, err, apperr.KindPermissionDenied)

	_, err = svc.TokenForUser(ctx, resp.User.ID)
	wantKind(t, err, apperr.KindPermissionDenied)
}

func TestAdminCreateUser(t *testing.T) {
	svc := newUserService()
	ctx := context.Background()
	admin := auth.Actor{UserID: 99, Role: models.RoleAdmin}

	u, err := svc.CreateUser(ctx, &models.CreateUserRequest{
		Name:     "Lab Tech",
		Email:    "lab@example.com",
		Password: "long-enough-pw",
		Role:     models.RoleLab,
	}, admin)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.Role != models.RoleLab || !u.IsActive {
		t.Fatalf("expected active lab user, got %+v", u)
	}

	_, err = svc.CreateUser(ctx, &models.CreateUserRequest{
		Name: "Z", Email: "z@example.com", Password: "long-enough-pw", Role: "superuser",
	}, admin)
	wantKind(t, err, apperr.KindValidation)

	warehouse := auth.Actor{UserID: 1, Role: models.RoleWarehouse}
	_, err = svc.CreateUser(ctx, &models.CreateUserRequest{
		Name: "Z", Email: "z@example.com", Password: "long-enough-pw", Role: models.RoleViewer,
	}, warehouse)
	wantKind(t, err, apperr.KindPermissionDenied)
}

func TestCannotDeactivateSelf(t *testing.T) {
	svc := newUserService()
	ctx := context.Background()
	admin := auth.Actor{UserID: 99, Role: models.RoleAdmin}

	err := svc.SetActive(ctx, admin.UserID, false, admin)
	wantKind(t, err, apperr.KindValidation)
}
