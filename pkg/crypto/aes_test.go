package crypto

import (
	"errors"
	"strings"
	"testing"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestEncryptDecrypt(t *testing.T) {
	key, err := KeyFromHex(testKeyHex)
	if err != nil {
		t.Fatal(err)
	}

	plain := "patient reports reduced pain after session 3"
	a, err := Encrypt(key, plain)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Encrypt(key, plain)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("nonce must differ between encryptions")
	}
	if strings.Contains(a, "pain") {
		t.Error("ciphertext leaks plaintext")
	}

	got, err := Decrypt(key, a)
	if err != nil {
		t.Fatal(err)
	}
	if got != plain {
		t.Errorf("Decrypt = %q, want %q", got, plain)
	}
}

func TestDecryptFailures(t *testing.T) {
	key, _ := KeyFromHex(testKeyHex)
	other, _ := KeyFromHex(strings.Repeat("ab", 32))

	sealed, err := Encrypt(key, "x")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decrypt(other, sealed); err == nil {
		t.Error("decrypt with the wrong key must fail")
	}
	if _, err := Decrypt(key, "plain text notes"); err == nil {
		t.Error("decrypt of non-base64 input must fail")
	}
	if _, err := Decrypt(key, "AAAA"); !errors.Is(err, ErrCiphertextTooShort) {
		t.Errorf("short input err = %v", err)
	}
}

func TestKeyFromHex(t *testing.T) {
	if _, err := KeyFromHex("zz"); err == nil {
		t.Error("expected hex error")
	}
	if _, err := KeyFromHex("0011"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("short key err = %v", err)
	}
	if _, err := Encrypt([]byte("short"), "x"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Encrypt short key err = %v", err)
	}
}
