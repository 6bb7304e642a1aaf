package pasetotoken

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestManager(t *testing.T, keys Keys) *Manager {
	t.Helper()
	m, err := New(Config{Mode: keys.Mode, Issuer: "physio", Audience: "physio", AccessTTL: time.Minute}, keys)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func TestIssueAndVerify(t *testing.T) {
	for _, keys := range []Keys{NewLocalKeys(), NewPublicKeys()} {
		t.Run(string(keys.Mode), func(t *testing.T) {
			m := newTestManager(t, keys)
			uid := uuid.New()
			sid := uuid.New()

			tok, err := m.IssueAccess(uid, "therapist", &sid)
			if err != nil {
				t.Fatalf("IssueAccess: %v", err)
			}

			claims, err := m.Verify(tok)
			if err != nil {
				t.Fatalf("Verify: %v", err)
			}
			if claims.UserID != uid {
				t.Errorf("UserID = %v, want %v", claims.UserID, uid)
			}
			if claims.Role != "therapist" {
				t.Errorf("Role = %q, want therapist", claims.Role)
			}
			if claims.SessionID == nil || *claims.SessionID != sid {
				t.Errorf("SessionID = %v, want %v", claims.SessionID, sid)
			}
			if claims.Type != TokenTypeAccess {
				t.Errorf("Type = %q", claims.Type)
			}
		})
	}
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	a := newTestManager(t, NewLocalKeys())
	b := newTestManager(t, NewLocalKeys())

	tok, err := a.IssueAccess(uuid.New(), "patient", nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = b.Verify(tok)
	var invalid ErrInvalidToken
	if !errors.As(err, &invalid) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestNewValidation(t *testing.T) {
	keys := NewLocalKeys()
	tests := []struct {
		name string
		cfg  Config
	}{
		{"mode mismatch", Config{Mode: ModePublic, Issuer: "i", Audience: "a"}},
		{"missing issuer", Config{Mode: ModeLocal, Audience: "a"}},
		{"missing audience", Config{Mode: ModeLocal, Issuer: "i"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg, keys); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadKeys(t *testing.T) {
	if _, err := LoadKeys(KeyStrings{Mode: ModeLocal}); err == nil {
		t.Error("expected error for missing symmetric key")
	}
	if _, err := LoadKeys(KeyStrings{Mode: "other"}); err == nil {
		t.Error("expected error for unknown mode")
	}
	k := NewLocalKeys()
	got, err := LoadKeys(KeyStrings{Mode: ModeLocal, SymmetricHex: k.Symmetric.ExportHex()})
	if err != nil {
		t.Fatalf("LoadKeys: %v", err)
	}
	if got.Symmetric == nil {
		t.Error("expected symmetric key")
	}
}
