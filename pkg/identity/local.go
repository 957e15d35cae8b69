package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// LocalConfig configures a LocalProvider.
type LocalConfig struct {
	Secret   []byte
	Issuer   string
	Audience string
	TTL      time.Duration
	// Users maps usernames to bcrypt hashes.
	Users map[string][]byte
}

// LocalProvider authenticates against a fixed set of bcrypt-hashed users
// and issues HS256 ID tokens.
type LocalProvider struct {
	cfg       LocalConfig
	dummyHash []byte
	now       func() time.Time
}

// NewLocalProvider validates cfg and returns a provider.
func NewLocalProvider(cfg LocalConfig) (*LocalProvider, error) {
	if len(cfg.Secret) < 16 {
		return nil, errors.New("identity: secret must be at least 16 bytes")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	for user, hash := range cfg.Users {
		if _, err := bcrypt.Cost(hash); err != nil {
			return nil, fmt.Errorf("identity: user %q: %w", user, err)
		}
	}

	// Compared against for unknown users so both paths cost one bcrypt check.
	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("identity: dummy hash: %w", err)
	}

	return &LocalProvider{cfg: cfg, dummyHash: dummy, now: time.Now}, nil
}

// ParseUsers parses a comma-separated list of user:bcrypt-hash pairs.
func ParseUsers(s string) (map[string][]byte, error) {
	users := make(map[string][]byte)
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		user, hash, ok := strings.Cut(entry, ":")
		if !ok || user == "" || hash == "" {
			return nil, fmt.Errorf("identity: malformed user entry %q, want user:hash", entry)
		}
		users[user] = []byte(hash)
	}
	return users, nil
}

// Authenticate checks the password and returns a signed ID token.
func (p *LocalProvider) Authenticate(ctx context.Context, username, password string) Result {
	if err := ctx.Err(); err != nil {
		return Result{Err: err}
	}

	hash, known := p.cfg.Users[username]
	if !known {
		_ = bcrypt.CompareHashAndPassword(p.dummyHash, []byte(password))
		return Result{Err: ErrInvalidCredentials}
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return Result{Err: ErrInvalidCredentials}
	}

	token, err := p.Issue(username)
	if err != nil {
		return Result{Err: err}
	}
	return Result{Token: token}
}

// Issue signs an ID token for subject.
func (p *LocalProvider) Issue(subject string) (string, error) {
	now := p.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    p.cfg.Issuer,
		Audience:  jwt.ClaimStrings{p.cfg.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(p.cfg.TTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("identity: sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm, issuer, audience and expiry.
func (p *LocalProvider) Verify(token string) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	}
	if p.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.cfg.Issuer))
	}
	if p.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(p.cfg.Audience))
	}

	var rc jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &rc, func(*jwt.Token) (any, error) {
		return p.cfg.Secret, nil
	}, opts...)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if rc.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return Claims{Subject: rc.Subject}, nil
}
