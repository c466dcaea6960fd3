package otp

import "strings"

// Code is one rendered TOTP value with its countdown state.
type Code struct {
	Value     string
	Remaining int
	Progress  float64
}

// Generator produces codes for a fixed step and digit count using its Clock.
type Generator struct {
	clock  Clock
	step   int
	digits int
}

// NewGenerator returns a Generator. Non-positive step or digits fall back to
// the defaults; a nil clock means the system clock.
func NewGenerator(clock Clock, step, digits int) *Generator {
	if clock == nil {
		clock = SystemClock{}
	}
	if step <= 0 {
		step = DefaultStep
	}
	if digits <= 0 {
		digits = DefaultDigits
	}
	return &Generator{clock: clock, step: step, digits: digits}
}

// Code computes the current code for secret. All three fields are derived
// from a single clock reading so they stay consistent with each other.
func (g *Generator) Code(secret string) (Code, error) {
	now := g.clock.Now()
	v, err := TOTPAt(secret, now, g.step, g.digits)
	if err != nil {
		return Code{}, err
	}
	return Code{
		Value:     v,
		Remaining: TimeRemainingAt(now, g.step),
		Progress:  ProgressAt(now, g.step),
	}, nil
}

func (g *Generator) Step() int { return g.step }

func (g *Generator) Digits() int { return g.digits }

// Verify checks code against secret at the current clock reading with skew
// windows of tolerance. Spaces in code are ignored, so "287 082" is accepted.
func (g *Generator) Verify(secret, code string, skew uint) (bool, error) {
	code = strings.Join(strings.Fields(code), "")
	return Verify(secret, code, g.clock.Now(), g.step, g.digits, skew)
}
