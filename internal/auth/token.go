package auth

import (
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/incroft/staffdir/internal/shared"
)

// Claims is the signed claim set carried by a bearer token.
type Claims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer mints signed bearer tokens for authenticated users.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer constructs an Issuer with the shared signing secret and token
// lifetime.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for the given user.
func (i *Issuer) Issue(u User) (string, error) {
	now := time.Now()
	claims := Claims{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", shared.WrapError(shared.CodeInternal, "failed to sign token", err)
	}
	return signed, nil
}

// Recorder accepts invalid-token audit records without blocking the caller.
type Recorder interface {
	Record(token string, cause error)
}

// Verifier converts an opaque bearer string into a trusted Principal or
// fails with a typed error, recording every failure for audit.
type Verifier struct {
	secret []byte
	audit  Recorder
	logger *slog.Logger
	now    func() time.Time
}

// NewVerifier constructs a Verifier. The audit recorder may be nil, in which
// case failures are only logged.
func NewVerifier(secret string, audit Recorder, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{secret: []byte(secret), audit: audit, logger: logger, now: time.Now}
}

// StripBearer removes a leading "Bearer " scheme, case-insensitively.
// Callers normally strip the prefix upstream; this is defensive.
func StripBearer(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) >= 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	return raw
}

// Verify validates signature and expiry of a bearer token and returns the
// Principal it asserts. Empty tokens short-circuit to unauthorized without
// touching the verifier. All failure paths enqueue a best-effort audit
// record and return a typed error whose code the transport can rely on.
func (v *Verifier) Verify(raw string) (*shared.Principal, error) {
	raw = StripBearer(raw)
	if raw == "" {
		return nil, shared.NewError(shared.CodeUnauthorized, "unauthorized access")
	}

	claims := &Claims{}
	// Claim validation is disabled so expiry can be checked separately below:
	// an expired token must surface as TOKEN_EXPIRED, not as a generic
	// signature failure.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}); err != nil {
		return nil, v.fail(raw, shared.WrapError(shared.CodeUnauthorized, "invalid token", err))
	}

	if claims.ExpiresAt != nil && !v.now().Before(claims.ExpiresAt.Time) {
		return nil, v.fail(raw, shared.NewError(shared.CodeTokenExpired, "token expired"))
	}

	if !shared.KnownRole(claims.Role) {
		// Unknown roles downgrade to least privilege instead of failing; the
		// warning keeps the downgrade visible in case it masks a bug.
		v.logger.Warn("unknown role in token, downgrading to viewer",
			slog.String("role", claims.Role), slog.String("user_id", claims.ID))
	}

	return &shared.Principal{
		ID:    claims.ID,
		Role:  shared.ParseRole(claims.Role),
		Email: claims.Email,
		Name:  claims.Name,
	}, nil
}

// fail records the offending token for audit and passes the typed error
// through unchanged. The audit write is fire-and-forget: it must never block
// or alter the error returned to the caller.
func (v *Verifier) fail(token string, cause error) error {
	v.logger.Warn("token verification failed", slog.String("error", cause.Error()))
	if v.audit != nil {
		v.audit.Record(token, cause)
	}
	return cause
}
