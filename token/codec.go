package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jrsteele09/jobboard-auth/internal/config"
	"github.com/jrsteele09/jobboard-auth/internal/errors"
)

// Codec issues and verifies access and refresh tokens. The two kinds are signed
// with different secrets so one can never be accepted as the other.
type Codec struct {
	access     Signer
	refresh    Signer
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	now        func() time.Time
}

type Option func(*Codec)

// WithNowFunc replaces the clock used for issuing and validating tokens.
func WithNowFunc(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

func NewCodec(cfg config.TokenConfig, opts ...Option) (*Codec, error) {
	accessSecret, refreshSecret := cfg.GetAccessTokenSecret(), cfg.GetRefreshTokenSecret()
	if accessSecret == "" || refreshSecret == "" {
		return nil, fmt.Errorf("[token.NewCodec] secrets must be set: %w", errors.ErrInvalidRequest)
	}
	if accessSecret == refreshSecret {
		return nil, fmt.Errorf("[token.NewCodec] access and refresh secrets must differ: %w", errors.ErrInvalidRequest)
	}

	c := &Codec{
		access:     NewHMACSigner(accessSecret),
		refresh:    NewHMACSigner(refreshSecret),
		accessTTL:  cfg.GetAccessTokenExpiry(),
		refreshTTL: cfg.GetRefreshTokenExpiry(),
		issuer:     cfg.GetIssuer(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Codec) IssueAccess(claims Claims) (string, error) {
	return c.issue(claims, c.access, c.accessTTL)
}

func (c *Codec) IssueRefresh(claims Claims) (string, error) {
	return c.issue(claims, c.refresh, c.refreshTTL)
}

func (c *Codec) VerifyAccess(raw string) (*Claims, error) {
	return c.Verify(raw, c.access)
}

func (c *Codec) VerifyRefresh(raw string) (*Claims, error) {
	return c.Verify(raw, c.refresh)
}

// RefreshTTL is the lifetime of refresh tokens, also used as the cookie max-age.
func (c *Codec) RefreshTTL() time.Duration {
	return c.refreshTTL
}

// Verify checks the signature and expiry of raw against signer. It returns
// errors.ErrTokenExpired for an expired token and errors.ErrSignatureInvalid for
// anything else that fails, including malformed input.
func (c *Codec) Verify(raw string, signer Signer) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)

	claims := &Claims{}
	if _, err := parser.ParseWithClaims(raw, claims, signer.GetVerificationKey); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.Wrapf(errors.ErrTokenExpired, "[Codec.Verify] %v", err)
		}
		return nil, errors.Wrapf(errors.ErrSignatureInvalid, "[Codec.Verify] %v", err)
	}
	return claims, nil
}

func (c *Codec) issue(claims Claims, signer Signer, ttl time.Duration) (string, error) {
	now := c.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.Subject,
		Issuer:    c.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.New().String(),
	}
	signed, err := signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("[Codec.issue] %w", err)
	}
	return signed, nil
}
