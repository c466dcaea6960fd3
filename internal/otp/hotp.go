package otp

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/toofer/internal/common"
)

const (
	DefaultStep   = 30 // seconds, RFC 6238
	DefaultDigits = 6

	maxDigits = 10
)

var (
	ErrInvalidSecret = common.ErrInvalidSecret
	ErrFormat        = common.ErrFormat
)

// CounterBytes encodes counter as 8 big-endian bytes.
func CounterBytes(counter uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, counter)
	return b
}

// HOTP computes the RFC 4226 code for key and counter, zero-padded to digits.
//
// An empty key is rejected with ErrInvalidSecret rather than producing a code
// from a degenerate HMAC.
func HOTP(key []byte, counter uint64, digits int) (string, error) {
	if len(key) == 0 {
		return "", ErrInvalidSecret
	}
	if digits < 1 || digits > maxDigits {
		return "", fmt.Errorf("%w: digits must be between 1 and %d, got %d", ErrFormat, maxDigits, digits)
	}

	mac := hmac.New(sha1.New, key)
	mac.Write(CounterBytes(counter))
	sum := mac.Sum(nil)

	// dynamic truncation
	offset := sum[len(sum)-1] & 0x0f
	code := uint64(binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff)

	mod := uint64(1)
	for i := 0; i < digits; i++ {
		mod *= 10
	}

	return fmt.Sprintf("%0*d", digits, code%mod), nil
}

// FormatCode groups a code in threes for display, e.g. "123456" -> "123 456".
func FormatCode(code string) string {
	if len(code) <= 3 {
		return code
	}
	var sb strings.Builder
	for i := 0; i < len(code); i++ {
		if i > 0 && i%3 == 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte(code[i])
	}
	return sb.String()
}
