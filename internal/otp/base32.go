package otp

import "strings"

const base32Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// Base32Decode decodes an RFC 4648 base32 string leniently: input is
// upper-cased, every character outside A-Z and 2-7 (padding included) is
// dropped, and trailing bits that do not fill a whole byte are discarded.
// Empty or fully invalid input yields an empty slice.
func Base32Decode(secret string) []byte {
	secret = strings.ToUpper(secret)

	out := make([]byte, 0, len(secret)*5/8)
	var buf uint32
	var bits uint

	for i := 0; i < len(secret); i++ {
		v := strings.IndexByte(base32Alphabet, secret[i])
		if v < 0 {
			continue
		}
		buf = buf<<5 | uint32(v)
		bits += 5
		if bits >= 8 {
			bits -= 8
			out = append(out, byte(buf>>bits))
			buf &= 1<<bits - 1
		}
	}
	return out
}

// NormalizeSecret upper-cases s and removes all whitespace, which is how
// secrets are stored on an Account.
func NormalizeSecret(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

// ValidateSecret reports whether secret, once normalized, is usable key
// material: only base32 symbols with optional trailing '=' padding, and at
// least one whole decoded byte.
func ValidateSecret(secret string) error {
	s := strings.TrimRight(NormalizeSecret(secret), "=")
	if s == "" {
		return ErrInvalidSecret
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(base32Alphabet, s[i]) < 0 {
			return ErrInvalidSecret
		}
	}
	if len(Base32Decode(s)) == 0 {
		return ErrInvalidSecret
	}
	return nil
}
