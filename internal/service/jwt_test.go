package service

import (
	"testing"
	"time"
)

func TestJWTRoundTrip(t *testing.T) {
	InitJWT("test-secret", time.Hour)

	token, err := GenerateJWT(123456789)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	got, err := ParseJWT(token)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if got != 123456789 {
		t.Errorf("operator id = %d, want 123456789", got)
	}
}

func TestJWTRejectsGarbage(t *testing.T) {
	InitJWT("test-secret", time.Hour)

	if _, err := ParseJWT("not.a.token"); err == nil {
		t.Error("garbage token accepted")
	}
	if _, err := ParseJWT(""); err == nil {
		t.Error("empty token accepted")
	}
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	InitJWT("secret-one", time.Hour)
	token, err := GenerateJWT(42)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	InitJWT("secret-two", time.Hour)
	if _, err := ParseJWT(token); err == nil {
		t.Error("token signed with another secret accepted")
	}
}

func TestJWTRejectsExpired(t *testing.T) {
	InitJWT("test-secret", -time.Minute)
	token, err := GenerateJWT(42)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	if _, err := ParseJWT(token); err == nil {
		t.Error("expired token accepted")
	}
}
