package invitation

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/url"
	"strings"
	"time"
)

const tokenBytes = 32

// Ticket is a freshly issued invitation. Token is handed out once; only Hash is stored.
type Ticket struct {
	Token     string
	Hash      string
	IssuedAt  time.Time
	ExpiresAt *time.Time
}

type Issuer struct {
	ttl      time.Duration
	now      func() time.Time
	generate func() (string, error)
}

type IssuerOption func(*Issuer)

func WithClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) { i.now = now }
}

func WithTokenSource(generate func() (string, error)) IssuerOption {
	return func(i *Issuer) { i.generate = generate }
}

// NewIssuer builds an issuer; a zero ttl issues tokens that never expire.
func NewIssuer(ttl time.Duration, opts ...IssuerOption) *Issuer {
	issuer := &Issuer{
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
		generate: randomToken,
	}
	for _, opt := range opts {
		opt(issuer)
	}
	return issuer
}

func (i *Issuer) Issue() (Ticket, error) {
	token, err := i.generate()
	if err != nil {
		return Ticket{}, err
	}

	issuedAt := i.now()
	ticket := Ticket{
		Token:    token,
		Hash:     HashToken(token),
		IssuedAt: issuedAt,
	}
	if i.ttl > 0 {
		expiresAt := issuedAt.Add(i.ttl)
		ticket.ExpiresAt = &expiresAt
	}
	return ticket, nil
}

func (i *Issuer) Now() time.Time {
	return i.now()
}

// Expired treats a missing expiry as never expiring.
func (i *Issuer) Expired(expiresAt *time.Time) bool {
	if expiresAt == nil {
		return false
	}
	return !i.now().Before(*expiresAt)
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(token)))
	return hex.EncodeToString(sum[:])
}

// Link builds the onboarding URL the invitee opens, e.g. {base}/nominee-onboarding?token=...
func Link(baseURL string, kind Kind, token string) string {
	return strings.TrimRight(baseURL, "/") + "/" + string(kind) + "-onboarding?token=" + url.QueryEscape(token)
}

func randomToken() (string, error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
