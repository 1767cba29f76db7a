package account

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength       = 32
	keyLength        = 32
	pbkdf2Iterations = 4096
)

var (
	ErrEmptyPassphrase = errors.New("passphrase cannot be empty")
	errDecryptingValue = errors.New("error decrypting data (incorrect passphrase?)")
)

// encrypt seals the plaintext with AES-GCM, the key is derived from the passphrase with PBKDF2.
// Result is hex encoded salt, nonce and ciphertext joined with "-".
func encrypt(passphrase string, plaintext []byte) (string, error) {
	if passphrase == "" {
		return "", ErrEmptyPassphrase
	}
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("error generating salt: %w", err)
	}
	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("error generating nonce: %w", err)
	}
	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)
	return strings.Join([]string{hex.EncodeToString(salt), hex.EncodeToString(nonce), hex.EncodeToString(ciphertext)}, "-"), nil
}

func decrypt(passphrase string, data string) ([]byte, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	arr := strings.Split(data, "-")
	if len(arr) != 3 {
		return nil, fmt.Errorf("invalid encrypted value, expected 3 parts, got %d", len(arr))
	}
	var parts [3][]byte
	for i, s := range arr {
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("error decoding hex data: %w", err)
		}
		parts[i] = b
	}
	gcm, err := newGCM(passphrase, parts[0])
	if err != nil {
		return nil, err
	}
	if len(parts[1]) != gcm.NonceSize() {
		return nil, fmt.Errorf("invalid nonce length %d", len(parts[1]))
	}
	plaintext, err := gcm.Open(nil, parts[1], parts[2], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errDecryptingValue, err)
	}
	return plaintext, nil
}

func newGCM(passphrase string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, keyLength, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("error creating AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("error creating GCM cipher: %w", err)
	}
	return gcm, nil
}
