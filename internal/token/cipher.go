package token

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/covline/covline/internal/config"
)

// ErrBadDecrypt is returned for any ciphertext that cannot be decrypted:
// malformed encoding, truncation, or a token produced with a different
// key or IV. The underlying cause is never exposed.
var ErrBadDecrypt = errors.New("bad_decrypt")

// Cipher encrypts and decrypts opaque string payloads with AES-256-CBC
// under a static key and IV. Encryption is deterministic: the same
// plaintext always yields the same ciphertext, so issued tokens stay
// stable across restarts. Stateless and safe for concurrent use.
//
// The static IV is kept for compatibility with tokens already in
// circulation; see DESIGN.md for the hardening discussion.
type Cipher struct {
	block cipher.Block
	iv    []byte
}

// NewCipher builds a Cipher from hex-encoded key (32 bytes) and IV (16 bytes).
func NewCipher(cfg config.CryptoConfig) (*Cipher, error) {
	key, err := hex.DecodeString(cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("decode cipher key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("cipher key must be 32 bytes, got %d", len(key))
	}
	iv, err := hex.DecodeString(cfg.IV)
	if err != nil {
		return nil, fmt.Errorf("decode cipher iv: %w", err)
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("cipher iv must be %d bytes, got %d", aes.BlockSize, len(iv))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &Cipher{block: block, iv: iv}, nil
}

// Encrypt returns the hex-encoded ciphertext of plaintext.
func (c *Cipher) Encrypt(plaintext string) string {
	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, c.iv).CryptBlocks(out, padded)
	return hex.EncodeToString(out)
}

// Decrypt reverses Encrypt. Every failure surfaces as ErrBadDecrypt.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	raw, err := hex.DecodeString(ciphertext)
	if err != nil {
		return "", ErrBadDecrypt
	}
	if len(raw) == 0 || len(raw)%aes.BlockSize != 0 {
		return "", ErrBadDecrypt
	}

	out := make([]byte, len(raw))
	cipher.NewCBCDecrypter(c.block, c.iv).CryptBlocks(out, raw)

	unpadded, ok := pkcs7Unpad(out, aes.BlockSize)
	if !ok {
		return "", ErrBadDecrypt
	}
	return string(unpadded), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	out := make([]byte, len(data)+padding)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(padding)
	}
	return out
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, bool) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, false
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize || padding > len(data) {
		return nil, false
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, false
		}
	}
	return data[:len(data)-padding], true
}
