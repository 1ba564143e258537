package httpapi

import (
	"context"
	"errors"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"tokokita/backend/internal/domain"
)

type authenticatorStub struct {
	actor domain.Actor
	err   error
}

func (s authenticatorStub) Authenticate(_ context.Context, _ domain.LoginRequest) (domain.Actor, error) {
	if s.err != nil {
		return domain.Actor{}, s.err
	}
	return s.actor, nil
}

func TestLoginIssuesParsableToken(t *testing.T) {
	manager := NewAuthManager("test-secret-key-0123456789abcdef", time.Hour, authenticatorStub{
		actor: domain.Actor{Username: "admin", Role: "admin"},
	})

	resp, err := manager.Login(context.Background(), domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if resp.Role != "admin" {
		t.Fatalf("unexpected role %q", resp.Role)
	}
	if _, err := time.Parse(time.RFC3339, resp.ExpiresAt); err != nil {
		t.Fatalf("expires_at is not RFC3339: %v", err)
	}

	actor, err := manager.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if actor.Username != "admin" || actor.Role != "admin" {
		t.Fatalf("unexpected actor %+v", actor)
	}
}

func TestLoginHidesAuthenticatorError(t *testing.T) {
	manager := NewAuthManager("test-secret-key-0123456789abcdef", time.Hour, authenticatorStub{
		err: errors.New("user row missing in table accounts"),
	})

	_, err := manager.Login(context.Background(), domain.LoginRequest{Username: "ghost", Password: "x"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if err.Error() != "invalid credentials" {
		t.Fatalf("internal detail leaked to client: %q", err.Error())
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewAuthManager("secret-one-0123456789abcdefghij", time.Hour, authenticatorStub{
		actor: domain.Actor{Username: "admin", Role: "admin"},
	})
	verifier := NewAuthManager("secret-two-0123456789abcdefghij", time.Hour, nil)

	resp, err := issuer.Login(context.Background(), domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := verifier.ParseToken(resp.AccessToken); err == nil {
		t.Fatalf("token signed with another secret must not validate")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	manager := NewAuthManager("test-secret-key-0123456789abcdef", time.Hour, nil)

	token, err := manager.sign("admin", "admin", time.Now().UTC().Add(-time.Minute))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := manager.ParseToken(token); err == nil {
		t.Fatalf("expired token must not validate")
	}
}

func TestParseTokenRejectsNoneAlgorithm(t *testing.T) {
	manager := NewAuthManager("test-secret-key-0123456789abcdef", time.Hour, nil)

	unsigned := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, jwtlib.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
	})
	raw, err := unsigned.SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}
	if _, err := manager.ParseToken(raw); err == nil {
		t.Fatalf("alg=none token must not validate")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	manager := NewAuthManager("test-secret-key-0123456789abcdef", time.Hour, nil)
	if _, err := manager.ParseToken("not.a.token"); err == nil {
		t.Fatalf("garbage token must not validate")
	}
}
