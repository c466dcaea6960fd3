// Package common defines the sentinel errors and small helpers shared by the
// OTP engine, the codec, the vault cipher and the vault store. Callers should
// use errors.Is to match these values.
package common

import "errors"

var (
	// Store-level errors.
	ErrorNotFound = errors.New("not found")

	// ErrFormat reports a malformed otpauth URI or a malformed stored record.
	ErrFormat = errors.New("invalid format")

	// ErrInvalidSecret reports a shared secret that is not usable base32 key material.
	ErrInvalidSecret = errors.New("invalid secret key format")

	// ErrAuthentication is returned for a wrong passphrase and for corrupted
	// ciphertext alike; the two cases are deliberately indistinguishable.
	ErrAuthentication = errors.New("invalid passphrase or corrupted vault")

	// ErrPrecondition reports that the cryptography provider is unavailable.
	ErrPrecondition = errors.New("cryptography provider unavailable")

	// Session errors.
	ErrVaultLocked        = errors.New("vault is locked")
	ErrPassphraseMismatch = errors.New("passphrases do not match")
	ErrEmptyName          = errors.New("name must not be empty")
	ErrEmptyPassphrase    = errors.New("passphrase must not be empty")
)
