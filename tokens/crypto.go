package tokens

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"

	"github.com/careercompass/compass-client/internal/errors"
)

const (
	scryptN    = 1 << 15
	scryptR    = 8
	scryptP    = 1
	keyLength  = 32
	saltLength = 16
)

// tokenCipher seals and opens the on-disk token blob with AES-256-GCM.
type tokenCipher struct {
	aead cipher.AEAD
}

func newTokenCipher(passphrase string, salt []byte) (*tokenCipher, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("token passphrase required")
	}
	key, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, keyLength)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}
	return &tokenCipher{aead: aead}, nil
}

func encodeSalt(salt []byte) string {
	return base64.StdEncoding.EncodeToString(salt)
}

func decodeSalt(raw string) ([]byte, error) {
	salt, err := base64.StdEncoding.DecodeString(raw)
	if err != nil || len(salt) != saltLength {
		return nil, errors.ErrTokenCiphertext
	}
	return salt, nil
}

func newSalt() ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("salt: %w", err)
	}
	return salt, nil
}

func (c *tokenCipher) Encrypt(plain []byte) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	cipherText := c.aead.Seal(nil, nonce, plain, nil)
	buf := append(nonce, cipherText...)
	return base64.StdEncoding.EncodeToString(buf), nil
}

func (c *tokenCipher) Decrypt(input string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(input)
	if err != nil {
		return nil, errors.ErrTokenCiphertext
	}
	ns := c.aead.NonceSize()
	if len(data) < ns {
		return nil, errors.ErrTokenCiphertext
	}
	nonce := data[:ns]
	cipherText := data[ns:]
	plain, err := c.aead.Open(nil, nonce, cipherText, nil)
	if err != nil {
		return nil, errors.ErrTokenCiphertext
	}
	return plain, nil
}
