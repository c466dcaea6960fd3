package otp

import (
	"encoding/base32"
	"errors"
	"fmt"
	"math"
	"time"

	potp "github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Clock abstracts time so the display loop and tests can control it.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Counter returns floor(unix(t) / step).
func Counter(t time.Time, step int) (uint64, error) {
	if step <= 0 {
		return 0, fmt.Errorf("%w: time step must be positive, got %d", ErrFormat, step)
	}
	unix := t.Unix()
	if unix < 0 {
		return 0, fmt.Errorf("%w: time before unix epoch", ErrFormat)
	}
	return uint64(unix) / uint64(step), nil
}

// TOTP returns the current 6-digit code for secret with a 30 second step.
func TOTP(secret string) (string, error) {
	return TOTPAt(secret, time.Now(), DefaultStep, DefaultDigits)
}

// TOTPAt returns the code for the step window containing t.
func TOTPAt(secret string, t time.Time, step, digits int) (string, error) {
	counter, err := Counter(t, step)
	if err != nil {
		return "", err
	}
	return HOTP(Base32Decode(secret), counter, digits)
}

// TimeRemaining returns the whole seconds left in the current window, in (0, step].
func TimeRemaining(step int) int {
	return TimeRemainingAt(time.Now(), step)
}

func TimeRemainingAt(t time.Time, step int) int {
	if step <= 0 {
		return 0
	}
	return step - int(floorMod(t.Unix(), int64(step)))
}

// Progress returns the fraction of the current window still remaining. It is
// 1 at the start of a window and approaches 0 at its end; it drives the
// countdown display only.
func Progress(step int) float64 {
	return ProgressAt(time.Now(), step)
}

func ProgressAt(t time.Time, step int) float64 {
	if step <= 0 {
		return 0
	}
	seconds := float64(t.UnixNano()) / float64(time.Second)
	elapsed := math.Mod(seconds, float64(step))
	if elapsed < 0 {
		elapsed += float64(step)
	}
	return 1 - elapsed/float64(step)
}

// Verify reports whether code is valid for secret at t, accepting skew
// windows on either side to absorb clock drift between devices.
//
// The secret is decoded the same lenient way TOTPAt does and re-encoded as
// padded base32, so any secret that yields a code here also verifies.
func Verify(secret, code string, t time.Time, step, digits int, skew uint) (bool, error) {
	if err := ValidateSecret(secret); err != nil {
		return false, err
	}
	if step <= 0 {
		return false, fmt.Errorf("%w: time step must be positive, got %d", ErrFormat, step)
	}
	if digits < 1 || digits > maxDigits {
		return false, fmt.Errorf("%w: digits must be between 1 and %d, got %d", ErrFormat, maxDigits, digits)
	}

	key := base32.StdEncoding.EncodeToString(Base32Decode(secret))
	ok, err := totp.ValidateCustom(code, key, t.UTC(), totp.ValidateOpts{
		Period:    uint(step),
		Skew:      skew,
		Digits:    potp.Digits(digits),
		Algorithm: potp.AlgorithmSHA1,
	})
	// a code of the wrong length is simply not valid
	if errors.Is(err, potp.ErrValidateInputInvalidLength) {
		return false, nil
	}
	return ok, err
}

func floorMod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
