package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pimtong/fieldworks-backend/api/middleware"
	"github.com/pimtong/fieldworks-backend/internal/users"
	"github.com/pimtong/fieldworks-backend/pkg/config"
	"github.com/pimtong/fieldworks-backend/pkg/enums"
	pkgerrors "github.com/pimtong/fieldworks-backend/pkg/errors"
)

// stubUsersService embeds the interface so each test only fills in the
// methods its handler touches.
type stubUsersService struct {
	users.Service
	verifyUser *users.UserDTO
	verifyErr  error

	changeUserID  uint
	changeCurrent string
	changeNew     string
	changeErr     error
}

func (s *stubUsersService) VerifyCredentials(_ context.Context, username, password string) (*users.UserDTO, error) {
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	return s.verifyUser, nil
}

func (s *stubUsersService) ChangePassword(_ context.Context, userID uint, currentPassword, newPassword string) error {
	s.changeUserID = userID
	s.changeCurrent = currentPassword
	s.changeNew = newPassword
	return s.changeErr
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "fieldworks-test", ExpirationMinutes: 30}
}

func TestLoginReturnsTokenAndUser(t *testing.T) {
	teamID := uint(3)
	svc := &stubUsersService{verifyUser: &users.UserDTO{
		ID:       7,
		Username: "msmith",
		FullName: "Mike Smith",
		Role:     enums.UserRoleTechnician,
		TeamID:   &teamID,
	}}

	handler := Login(svc, testJWTConfig(), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader([]byte(`{"username":"msmith","password":"hunter22secret"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data struct {
			Token string         `json:"token"`
			User  *users.UserDTO `json:"user"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Token == "" {
		t.Fatal("expected a token in the payload")
	}
	if envelope.Data.User == nil || envelope.Data.User.Username != "msmith" {
		t.Fatalf("expected user in payload got %+v", envelope.Data.User)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := &stubUsersService{verifyErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}

	handler := Login(svc, testJWTConfig(), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader([]byte(`{"username":"msmith","password":"wrong"}`)))
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestLoginRejectsMissingFields(t *testing.T) {
	handler := Login(&stubUsersService{}, testJWTConfig(), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader([]byte(`{"username":"msmith"}`)))
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestChangePasswordUsesCaller(t *testing.T) {
	svc := &stubUsersService{}
	handler := ChangePassword(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/password", bytes.NewReader([]byte(`{"current_password":"oldsecret1","new_password":"newsecret1"}`)))
	req = req.WithContext(middleware.WithPrincipal(req.Context(), middleware.Principal{UserID: 7, Role: enums.UserRoleTechnician}))
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.changeUserID != 7 {
		t.Fatalf("expected change for user 7 got %d", svc.changeUserID)
	}
	if svc.changeCurrent != "oldsecret1" || svc.changeNew != "newsecret1" {
		t.Fatalf("unexpected passwords passed through: %q %q", svc.changeCurrent, svc.changeNew)
	}
}

func TestChangePasswordRequiresPrincipal(t *testing.T) {
	handler := ChangePassword(&stubUsersService{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/password", bytes.NewReader([]byte(`{"current_password":"oldsecret1","new_password":"newsecret1"}`)))
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
