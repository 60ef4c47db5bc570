package httpapi

import (
	"context"
	"strings"
	"testing"
	"time"

	"serenia/backend/internal/domain"
	"serenia/backend/internal/store/memory"
)

func TestAuthManagerUpgradesLegacyPlainPassword(t *testing.T) {
	repo := memory.NewSeeded()
	if err := repo.CreateUser(context.Background(), domain.UserAccount{
		Username:  "legacy",
		Password:  "plain-text-password",
		Role:      "cashier",
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	auth := NewAuthManager("test-secret", time.Hour, repo)

	users, err := repo.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	var stored string
	for _, u := range users {
		if u.Username == "legacy" {
			stored = u.Password
		}
	}
	if stored == "" {
		t.Fatal("legacy user not found after bootstrap")
	}
	if !strings.HasPrefix(stored, "$2") {
		t.Fatalf("expected bcrypt hash in store, got %q", stored)
	}

	resp, err := auth.Login(domain.LoginRequest{Username: "legacy", Password: "plain-text-password"})
	if err != nil {
		t.Fatalf("login with original password after upgrade: %v", err)
	}
	if resp.Role != "cashier" {
		t.Fatalf("expected cashier role, got %q", resp.Role)
	}
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	repo := memory.NewSeeded()
	if err := repo.CreateUser(context.Background(), domain.UserAccount{
		Username:  "suspended",
		Password:  "somepassword",
		Role:      "cashier",
		Active:    false,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	auth := NewAuthManager("test-secret", time.Hour, repo)
	if _, err := auth.Login(domain.LoginRequest{Username: "suspended", Password: "somepassword"}); err == nil {
		t.Fatal("expected inactive account login to fail")
	}
}

func TestParseTokenRoundTrip(t *testing.T) {
	repo := memory.NewSeeded()
	auth := NewAuthManager("test-secret", time.Hour, repo)

	resp, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	actor, err := auth.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if actor.Username != "admin" || actor.Role != "admin" {
		t.Fatalf("unexpected actor %+v", actor)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	repo := memory.NewSeeded()
	auth := NewAuthManager("secret-one", time.Hour, repo)
	other := NewAuthManager("secret-two", time.Hour, repo)

	resp, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := other.ParseToken(resp.AccessToken); err == nil {
		t.Fatal("expected token signed with a different secret to be rejected")
	}
}

func TestParseTokenRejectsExpiredToken(t *testing.T) {
	repo := memory.NewSeeded()
	auth := NewAuthManager("test-secret", time.Hour, repo)

	token, err := auth.sign("admin", "admin", time.Now().UTC().Add(-time.Minute))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := auth.ParseToken(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}
