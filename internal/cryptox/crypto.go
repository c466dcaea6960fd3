// Package cryptox implements the passphrase-based vault cipher: PBKDF2-SHA256
// key stretching followed by AES-256-GCM.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/dmitrijs2005/toofer/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

// Derivation and AEAD parameters. They are not recorded in EncryptedVault,
// so changing any of them makes existing vaults unreadable.
const (
	Iterations = 100000
	KeyLength  = 32 // AES-256
	SaltSize   = 16
	NonceSize  = 12 // GCM standard nonce
)

var (
	ErrAuthentication = common.ErrAuthentication
	ErrPrecondition   = common.ErrPrecondition
)

// Cipher encrypts and decrypts vault payloads. The zero value has no random
// source and fails every call with ErrPrecondition; use New.
type Cipher struct {
	rand io.Reader
}

// New returns a Cipher backed by crypto/rand.
func New() *Cipher {
	return &Cipher{rand: rand.Reader}
}

// NewWithRand returns a Cipher drawing salts and nonces from r.
func NewWithRand(r io.Reader) *Cipher {
	return &Cipher{rand: r}
}

var defaultCipher = New()

// Encrypt encrypts plaintext with the default Cipher.
func Encrypt(plaintext string, passphrase []byte) (EncryptedVault, error) {
	return defaultCipher.Encrypt(plaintext, passphrase)
}

// Decrypt decrypts v with the default Cipher.
func Decrypt(v EncryptedVault, passphrase []byte) (string, error) {
	return defaultCipher.Decrypt(v, passphrase)
}

// DeriveKey stretches passphrase into a 256-bit key with PBKDF2-HMAC-SHA256.
// The result is deterministic for a given (passphrase, salt).
func DeriveKey(passphrase, salt []byte) []byte {
	return pbkdf2.Key(passphrase, salt, Iterations, KeyLength, sha256.New)
}

func (c *Cipher) ensureProvider() error {
	if c == nil || c.rand == nil {
		return ErrPrecondition
	}
	return nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt seals the UTF-8 bytes of plaintext under a key derived from
// passphrase.
//
// Every call draws a fresh 16-byte salt and a fresh 12-byte nonce, so
// encrypting the same input twice never yields the same record. The GCM tag
// is appended to the ciphertext in Data.
//
// Parameters:
//   - plaintext: serialized account list.
//   - passphrase: user passphrase; not retained.
//
// Returns:
//   - the record with IV, Data and Salt in standard base64.
//   - ErrPrecondition if the Cipher has no random source, or the random
//     source error if reading from it fails.
//
// Example:
//
//	v, err := cryptox.New().Encrypt(`[{"id":"1","name":"alice"}]`, []byte("correct horse"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	b, _ := v.Marshal() // {"iv":"...","data":"...","salt":"..."}
func (c *Cipher) Encrypt(plaintext string, passphrase []byte) (EncryptedVault, error) {
	if err := c.ensureProvider(); err != nil {
		return EncryptedVault{}, err
	}

	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(c.rand, salt); err != nil {
		return EncryptedVault{}, fmt.Errorf("salt: %w", err)
	}
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return EncryptedVault{}, fmt.Errorf("nonce: %w", err)
	}

	key := DeriveKey(passphrase, salt)
	defer common.WipeByteArray(key)

	aead, err := newGCM(key)
	if err != nil {
		return EncryptedVault{}, fmt.Errorf("cipher init: %w", err)
	}

	sealed := aead.Seal(nil, nonce, []byte(plaintext), nil)

	return EncryptedVault{
		IV:   base64.StdEncoding.EncodeToString(nonce),
		Data: base64.StdEncoding.EncodeToString(sealed),
		Salt: base64.StdEncoding.EncodeToString(salt),
	}, nil
}

// Decrypt re-derives the key from passphrase and the stored salt and opens
// the record.
//
// A wrong passphrase, a flipped bit anywhere in the record, and undecodable
// fields all return ErrAuthentication with no further detail.
func (c *Cipher) Decrypt(v EncryptedVault, passphrase []byte) (string, error) {
	if err := c.ensureProvider(); err != nil {
		return "", err
	}

	salt, err := base64.StdEncoding.DecodeString(v.Salt)
	if err != nil {
		return "", ErrAuthentication
	}
	nonce, err := base64.StdEncoding.DecodeString(v.IV)
	if err != nil || len(nonce) != NonceSize {
		return "", ErrAuthentication
	}
	data, err := base64.StdEncoding.DecodeString(v.Data)
	if err != nil {
		return "", ErrAuthentication
	}

	key := DeriveKey(passphrase, salt)
	defer common.WipeByteArray(key)

	aead, err := newGCM(key)
	if err != nil {
		return "", fmt.Errorf("cipher init: %w", err)
	}

	plaintext, err := aead.Open(nil, nonce, data, nil)
	if err != nil {
		return "", ErrAuthentication
	}
	return string(plaintext), nil
}
