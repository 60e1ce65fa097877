package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aretw0/jot/pkg/core"
)

const (
	issuer         = "jot"
	purposeSession = "session"
	purposeReset   = "reset"
)

// claims is the payload of session and reset tokens.
type claims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	// Fingerprint binds a reset token to the password hash it replaces,
	// so the token stops working once used.
	Fingerprint string `json:"fp,omitempty"`
	jwt.RegisteredClaims
}

func (p *Provider) sign(c claims, ttl time.Duration) (string, error) {
	now := p.now()
	c.Issuer = issuer
	c.IssuedAt = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tok, nil
}

func (p *Provider) parse(token, purpose string) (*claims, error) {
	c := &claims{}
	_, err := jwt.ParseWithClaims(token, c, func(*jwt.Token) (any, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrAuth, err)
	}
	if c.Purpose != purpose {
		return nil, fmt.Errorf("%w: token purpose %q", core.ErrAuth, c.Purpose)
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("%w: token without subject", core.ErrAuth)
	}
	return c, nil
}

func (p *Provider) sessionToken(s core.Session) (string, error) {
	return p.sign(claims{
		Email:            s.Email,
		Purpose:          purposeSession,
		RegisteredClaims: jwt.RegisteredClaims{Subject: s.UserID},
	}, p.sessionTTL)
}

func (p *Provider) sessionFromToken(token string) (*core.Session, error) {
	c, err := p.parse(token, purposeSession)
	if err != nil {
		return nil, err
	}
	return &core.Session{UserID: c.Subject, Email: c.Email}, nil
}

func (p *Provider) resetToken(a core.Account) (string, error) {
	return p.sign(claims{
		Email:            a.Email,
		Purpose:          purposeReset,
		Fingerprint:      fingerprint(a.PasswordHash),
		RegisteredClaims: jwt.RegisteredClaims{Subject: a.ID},
	}, p.resetTTL)
}

func fingerprint(hash []byte) string {
	sum := sha256.Sum256(hash)
	return hex.EncodeToString(sum[:8])
}

// ErrTokenUsed is returned when a reset token no longer matches the account.
var ErrTokenUsed = errors.New("reset token already used")
