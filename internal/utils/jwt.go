package utils // package utils provides helpers for password hashing and token issuing

import (
    "strconv" // member ids travel as decimal strings in the sub claim
    "time"    // expirations

    "github.com/golang-jwt/jwt/v5" // signed access and refresh tokens
    "github.com/google/uuid"       // unique refresh token ids
    "github.com/pkg/errors"

    "github.com/goodjob/goodjob/internal/model"
)

const (
    tokenTypeAccess  = "access"
    tokenTypeRefresh = "refresh"
)

// ErrInvalidToken is returned for tokens that fail signature, expiry or
// type checks.  Callers never learn which check failed.
var ErrInvalidToken = errors.New("invalid token")

// Token is a signed JWT string together with its lifetime.
type Token struct {
    Value string        // the serialized JWT string
    Exp   time.Time     // the UTC expiration time
    TTL   time.Duration // lifetime at issue time; cookie Max-Age is derived from it
}

// TokenPair is what a successful login or refresh hands to the client.
type TokenPair struct {
    Access  Token
    Refresh Token
}

// AccessClaims is the payload of an access token: who the caller is and
// which membership tier they held when the token was minted.
type AccessClaims struct {
    Role string `json:"role"`
    Type string `json:"typ"`
    jwt.RegisteredClaims
}

// RefreshClaims is the payload of a refresh token.  The random jti makes
// two refresh tokens minted in the same second differ.
type RefreshClaims struct {
    Type string `json:"typ"`
    jwt.RegisteredClaims
}

// MemberID parses the subject claim.
func (c RefreshClaims) MemberID() (uint64, error) { return parseSubject(c.Subject) }

// MemberID parses the subject claim.
func (c AccessClaims) MemberID() (uint64, error) { return parseSubject(c.Subject) }

// TokenIssuer mints and verifies HS256 access/refresh tokens.  It keeps no
// revocation list: a refresh token is revoked by removing it from the
// session registry.
type TokenIssuer struct {
    secret     []byte
    accessTTL  time.Duration
    refreshTTL time.Duration
    now        func() time.Time
}

// NewTokenIssuer validates the configuration once.  An error here is a
// deployment mistake and should stop the process.
func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) (*TokenIssuer, error) {
    if secret == "" {
        return nil, errors.New("jwt secret must not be empty")
    }
    if accessTTL <= 0 || refreshTTL <= 0 {
        return nil, errors.Errorf("token ttls must be positive (access=%s refresh=%s)", accessTTL, refreshTTL)
    }
    if refreshTTL < accessTTL {
        return nil, errors.Errorf("refresh ttl %s shorter than access ttl %s", refreshTTL, accessTTL)
    }
    return &TokenIssuer{
        secret:     []byte(secret),
        accessTTL:  accessTTL,
        refreshTTL: refreshTTL,
        now:        func() time.Time { return time.Now().UTC() },
    }, nil
}

// AccessTTL returns the configured access token lifetime.
func (t *TokenIssuer) AccessTTL() time.Duration { return t.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (t *TokenIssuer) RefreshTTL() time.Duration { return t.refreshTTL }

// Issue mints a fresh pair for m.  Nothing from a previous pair is reused.
func (t *TokenIssuer) Issue(m *model.Member) (TokenPair, error) {
    now := t.now()
    sub := strconv.FormatUint(m.ID, 10)

    accessExp := now.Add(t.accessTTL)
    access, err := t.sign(AccessClaims{
        Role: string(m.Membership),
        Type: tokenTypeAccess,
        RegisteredClaims: jwt.RegisteredClaims{
            Subject:   sub,
            IssuedAt:  jwt.NewNumericDate(now),
            ExpiresAt: jwt.NewNumericDate(accessExp),
        },
    })
    if err != nil {
        return TokenPair{}, err
    }

    refreshExp := now.Add(t.refreshTTL)
    refresh, err := t.sign(RefreshClaims{
        Type: tokenTypeRefresh,
        RegisteredClaims: jwt.RegisteredClaims{
            ID:        uuid.NewString(),
            Subject:   sub,
            IssuedAt:  jwt.NewNumericDate(now),
            ExpiresAt: jwt.NewNumericDate(refreshExp),
        },
    })
    if err != nil {
        return TokenPair{}, err
    }

    return TokenPair{
        Access:  Token{Value: access, Exp: accessExp, TTL: t.accessTTL},
        Refresh: Token{Value: refresh, Exp: refreshExp, TTL: t.refreshTTL},
    }, nil
}

// ParseAccess verifies raw as an access token.
func (t *TokenIssuer) ParseAccess(raw string) (AccessClaims, error) {
    var c AccessClaims
    if err := t.parse(raw, &c); err != nil || c.Type != tokenTypeAccess {
        return AccessClaims{}, ErrInvalidToken
    }
    if _, err := c.MemberID(); err != nil {
        return AccessClaims{}, ErrInvalidToken
    }
    return c, nil
}

// ParseRefresh verifies raw as a refresh token.
func (t *TokenIssuer) ParseRefresh(raw string) (RefreshClaims, error) {
    var c RefreshClaims
    if err := t.parse(raw, &c); err != nil || c.Type != tokenTypeRefresh {
        return RefreshClaims{}, ErrInvalidToken
    }
    if _, err := c.MemberID(); err != nil {
        return RefreshClaims{}, ErrInvalidToken
    }
    return c, nil
}

func (t *TokenIssuer) sign(claims jwt.Claims) (string, error) {
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
    if err != nil {
        return "", errors.Wrap(err, "sign token")
    }
    return signed, nil
}

func (t *TokenIssuer) parse(raw string, claims jwt.Claims) error {
    _, err := jwt.ParseWithClaims(raw, claims, func(tok *jwt.Token) (interface{}, error) {
        // Reject anything that is not HMAC so a token cannot pick its own verifier.
        if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidToken
        }
        return t.secret, nil
    },
        jwt.WithTimeFunc(t.now),
        jwt.WithExpirationRequired(),
        jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
    )
    return err
}

func parseSubject(sub string) (uint64, error) {
    id, err := strconv.ParseUint(sub, 10, 64)
    if err != nil || id == 0 {
        return 0, ErrInvalidToken
    }
    return id, nil
}
