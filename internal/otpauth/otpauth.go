package otpauth

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/toofer/internal/client/models"
	"github.com/dmitrijs2005/toofer/internal/common"
	"github.com/dmitrijs2005/toofer/internal/otp"
	"github.com/google/uuid"
)

const (
	Scheme        = "otpauth"
	TypeTOTP      = "totp"
	TypeHOTP      = "hotp"
	DefaultIssuer = "Unknown"
)

var (
	ErrFormat        = common.ErrFormat
	ErrInvalidSecret = common.ErrInvalidSecret
)

// ParsedOTPAuth is the decoded content of a key URI. Optional parameters are
// nil when the URI does not carry them.
type ParsedOTPAuth struct {
	Type      string
	Label     string
	Issuer    string
	Secret    string
	Algorithm *string
	Digits    *int
	Period    *int
	Counter   *int
}

// Parse decodes uri. Every failure wraps ErrFormat.
func Parse(uri string) (ParsedOTPAuth, error) {
	var zero ParsedOTPAuth

	if !strings.HasPrefix(uri, Scheme+"://") {
		return zero, fmt.Errorf("%w: must start with %s://", ErrFormat, Scheme)
	}

	u, err := url.Parse(uri)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	typ := u.Host
	if typ != TypeTOTP && typ != TypeHOTP {
		return zero, fmt.Errorf("%w: type must be %s or %s", ErrFormat, TypeTOTP, TypeHOTP)
	}

	label, err := url.PathUnescape(strings.TrimPrefix(u.EscapedPath(), "/"))
	if err != nil {
		return zero, fmt.Errorf("%w: label: %v", ErrFormat, err)
	}

	var issuer string
	name := label
	if before, after, found := strings.Cut(label, ":"); found {
		issuer, name = before, after
	}

	q := parseQuery(u.RawQuery)

	secret := q.Get("secret")
	if secret == "" {
		return zero, fmt.Errorf("%w: missing secret parameter", ErrFormat)
	}

	if v := q.Get("issuer"); v != "" {
		issuer = v
	}
	if issuer == "" {
		issuer = DefaultIssuer
	}

	p := ParsedOTPAuth{
		Type:   typ,
		Label:  name,
		Issuer: issuer,
		Secret: otp.NormalizeSecret(secret),
	}

	if q.Has("algorithm") {
		if v := q.Get("algorithm"); v != "" {
			p.Algorithm = &v
		}
	}
	if p.Digits, err = intParam(q, "digits", otp.DefaultDigits); err != nil {
		return zero, err
	}
	if p.Period, err = intParam(q, "period", otp.DefaultStep); err != nil {
		return zero, err
	}
	if p.Counter, err = intParam(q, "counter", 0); err != nil {
		return zero, err
	}

	return p, nil
}

// parseQuery splits raw on '&' only, the way browsers read a query string, so
// a ';' stays inside its value. An escape that cannot be decoded is kept as is.
func parseQuery(raw string) url.Values {
	q := url.Values{}
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		q.Add(unescapeQuery(k), unescapeQuery(v))
	}
	return q
}

func unescapeQuery(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return strings.ReplaceAll(s, "+", " ")
}

// intParam reads an optional integer parameter. A present but empty value
// takes def; a present non-integer value is a format error.
func intParam(q url.Values, key string, def int) (*int, error) {
	if !q.Has(key) {
		return nil, nil
	}
	raw := q.Get(key)
	if raw == "" {
		return &def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", ErrFormat, key)
	}
	return &n, nil
}

// IsValid reports whether Parse accepts uri.
func IsValid(uri string) bool {
	_, err := Parse(uri)
	return err == nil
}

// ToAccount builds a new Account with a fresh random id.
func ToAccount(p ParsedOTPAuth) models.Account {
	return models.Account{
		ID:     uuid.NewString(),
		Name:   p.Label,
		Issuer: p.Issuer,
		Secret: p.Secret,
	}
}

// ImportURI parses uri and converts it to an Account, rejecting secrets that
// could not produce a code. A URI without an account name in its label is
// named after its issuer.
func ImportURI(uri string) (models.Account, error) {
	p, err := Parse(uri)
	if err != nil {
		return models.Account{}, err
	}
	if err := otp.ValidateSecret(p.Secret); err != nil {
		return models.Account{}, err
	}
	a := ToAccount(p)
	if strings.TrimSpace(a.Name) == "" {
		a.Name = a.Issuer
	}
	return a, nil
}

// Serialize renders a as a totp key URI.
func Serialize(a models.Account) string {
	var sb strings.Builder
	sb.WriteString(Scheme)
	sb.WriteString("://")
	sb.WriteString(TypeTOTP)
	sb.WriteByte('/')
	sb.WriteString(escapeComponent(a.Issuer + ":" + a.Name))
	sb.WriteString("?secret=")
	sb.WriteString(url.QueryEscape(a.Secret))
	sb.WriteString("&issuer=")
	sb.WriteString(url.QueryEscape(a.Issuer))
	return sb.String()
}

var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// escapeComponent percent-encodes s the way browsers' encodeURIComponent
// does, so the label colon is always written as %3A.
func escapeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}
