package token

import (
	"errors"
	"strings"
	"testing"

	"github.com/covline/covline/internal/config"
)

const (
	testKeyHex = "603deb1015ca71be2b73aef0857d77811f352c073b6108d72d9810a30914dff4"
	testIVHex  = "000102030405060708090a0b0c0d0e0f"
)

func newTestCipher(t *testing.T) *Cipher {
	t.Helper()
	c, err := NewCipher(config.CryptoConfig{Key: testKeyHex, IV: testIVHex})
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}
	return c
}

func TestCipherRoundTrip(t *testing.T) {
	c := newTestCipher(t)

	for _, plaintext := range []string{
		"",
		"a",
		"exactly sixteen!",
		`{"email":"holder@example.com","policy_id":"APP463109486"}`,
		strings.Repeat("x", 1000),
	} {
		encrypted := c.Encrypt(plaintext)
		decrypted, err := c.Decrypt(encrypted)
		if err != nil {
			t.Fatalf("decrypt %q: %v", plaintext, err)
		}
		if decrypted != plaintext {
			t.Fatalf("round trip mismatch: got %q, want %q", decrypted, plaintext)
		}
	}
}

func TestCipherDeterministic(t *testing.T) {
	c := newTestCipher(t)

	first := c.Encrypt("same payload")
	second := c.Encrypt("same payload")
	if first != second {
		t.Fatalf("expected deterministic ciphertext, got %q and %q", first, second)
	}
}

func TestCipherDecryptRejectsMalformedInput(t *testing.T) {
	c := newTestCipher(t)

	for name, ciphertext := range map[string]string{
		"not hex":          "zzzz",
		"empty":            "",
		"wrong block size": "abcdef12",
		"truncated":        c.Encrypt("some reasonably long payload here")[:32],
	} {
		if _, err := c.Decrypt(ciphertext); !errors.Is(err, ErrBadDecrypt) {
			t.Fatalf("%s: expected ErrBadDecrypt, got %v", name, err)
		}
	}
}

func TestCipherRejectsBadConfig(t *testing.T) {
	if _, err := NewCipher(config.CryptoConfig{Key: "abcd", IV: testIVHex}); err == nil {
		t.Fatal("expected error for short key")
	}
	if _, err := NewCipher(config.CryptoConfig{Key: testKeyHex, IV: "abcd"}); err == nil {
		t.Fatal("expected error for short iv")
	}
	if _, err := NewCipher(config.CryptoConfig{Key: "not hex at all!", IV: testIVHex}); err == nil {
		t.Fatal("expected error for non-hex key")
	}
}
