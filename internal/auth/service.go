package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/kopikita/backend-kopi/internal/catalog"
	"github.com/kopikita/backend-kopi/internal/common"
)

const (
	defaultAccessTTL = 24 * time.Hour
	defaultOTPTTL    = 2 * time.Minute
	maxOTPAttempts   = 5
)

// Service runs the OTP login flow and issues HS256 access tokens. OTP
// challenges live in memory with a short TTL; in demo mode every challenge
// accepts the configured demo code instead of a random one.
type Service struct {
	catalog   *catalog.Service
	secret    []byte
	accessTTL time.Duration
	otpTTL    time.Duration
	demoCode  string
	now       func() time.Time
	signer    jwa.SignatureAlgorithm
	validator TokenValidator
	issuer    string
	audience  string
	clockSkew time.Duration

	mu      sync.Mutex
	pending map[string]otpChallenge
}

type otpChallenge struct {
	userID    string
	code      string
	expiresAt time.Time
	attempts  int
}

// Config configures the auth service.
type Config struct {
	Catalog        *catalog.Service
	Secret         string
	AccessTokenTTL time.Duration
	OTPTTL         time.Duration
	// DemoCode, when set, is accepted for every challenge and echoed to the
	// client. Demo builds only.
	DemoCode  string
	Issuer    string
	Audience  string
	ClockSkew time.Duration
	Now       func() time.Time
}

// NewService builds the auth service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("auth: catalog is required")
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	otpTTL := cfg.OTPTTL
	if otpTTL <= 0 {
		otpTTL = defaultOTPTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		catalog:   cfg.Catalog,
		secret:    []byte(secret),
		accessTTL: accessTTL,
		otpTTL:    otpTTL,
		demoCode:  strings.TrimSpace(cfg.DemoCode),
		now:       now,
		signer:    jwa.HS256,
		validator: TokenValidator{
			Issuer:    cfg.Issuer,
			Audience:  cfg.Audience,
			ClockSkew: cfg.ClockSkew,
			Algorithm: jwa.HS256,
		},
		issuer:    cfg.Issuer,
		audience:  cfg.Audience,
		clockSkew: cfg.ClockSkew,
		pending:   make(map[string]otpChallenge),
	}, nil
}

// Challenge is a pending OTP handed back to the client.
type Challenge struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	// DemoCode is only populated in demo mode.
	DemoCode string `json:"demoCode,omitempty"`
}

// RequestOTP starts a login for a registered phone number or email and
// returns the challenge token the verify call must echo.
func (s *Service) RequestOTP(contact string) (Challenge, error) {
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return Challenge{}, common.NewAppError("VALIDATION_ERROR", "contact is required", http.StatusBadRequest, nil)
	}
	user, err := s.catalog.UserByContact(contact)
	if err != nil {
		return Challenge{}, common.NewAppError("USER_NOT_FOUND", "no account for this contact", http.StatusNotFound, err)
	}

	code := s.demoCode
	if code == "" {
		code, err = randomCode()
		if err != nil {
			return Challenge{}, fmt.Errorf("auth: generate otp: %w", err)
		}
	}

	now := s.now()
	token := "otp_" + uuid.NewString()
	s.mu.Lock()
	s.purgeExpiredLocked(now)
	s.pending[token] = otpChallenge{
		userID:    user.ID,
		code:      code,
		expiresAt: now.Add(s.otpTTL),
	}
	s.mu.Unlock()

	ch := Challenge{Token: token, ExpiresAt: now.Add(s.otpTTL)}
	if s.demoCode != "" {
		ch.DemoCode = s.demoCode
	}
	return ch, nil
}

// Session is a successful login result.
type Session struct {
	User         catalog.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	AccessExpiry time.Time    `json:"accessExpiry"`
}

// VerifyOTP redeems a challenge. A correct code consumes the challenge and
// returns a signed access token; repeated wrong codes burn it.
func (s *Service) VerifyOTP(token, code string) (Session, error) {
	token = strings.TrimSpace(token)
	code = strings.TrimSpace(code)
	if token == "" || code == "" {
		return Session{}, common.NewAppError("VALIDATION_ERROR", "token and code are required", http.StatusBadRequest, nil)
	}

	now := s.now()
	s.mu.Lock()
	challenge, ok := s.pending[token]
	if !ok {
		s.mu.Unlock()
		return Session{}, common.NewAppError("OTP_INVALID", "invalid or expired code", http.StatusUnauthorized, nil)
	}
	if now.After(challenge.expiresAt) {
		delete(s.pending, token)
		s.mu.Unlock()
		return Session{}, common.NewAppError("OTP_EXPIRED", "code has expired, request a new one", http.StatusUnauthorized, nil)
	}
	if challenge.code != code {
		challenge.attempts++
		if challenge.attempts >= maxOTPAttempts {
			delete(s.pending, token)
		} else {
			s.pending[token] = challenge
		}
		s.mu.Unlock()
		return Session{}, common.NewAppError("OTP_INVALID", "invalid or expired code", http.StatusUnauthorized, nil)
	}
	delete(s.pending, token)
	s.mu.Unlock()

	user, err := s.catalog.User(challenge.userID)
	if err != nil {
		return Session{}, common.NewAppError("USER_NOT_FOUND", "account no longer exists", http.StatusNotFound, err)
	}
	accessToken, expiry, err := s.signAccessToken(user.ID)
	if err != nil {
		return Session{}, fmt.Errorf("sign access token: %w", err)
	}
	return Session{User: user, AccessToken: accessToken, AccessExpiry: expiry}, nil
}

// Me fetches the current authenticated user.
func (s *Service) Me(userID string) (catalog.User, error) {
	user, err := s.catalog.User(userID)
	if err != nil {
		return catalog.User{}, common.NewAppError("USER_NOT_FOUND", "account no longer exists", http.StatusNotFound, err)
	}
	return user, nil
}

// ParseAccessToken validates an access token and returns the subject (user ID).
func (s *Service) ParseAccessToken(token string) (string, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return "", common.NewAppError("UNAUTHORIZED", "missing token", http.StatusUnauthorized, nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if s.validator.Algorithm != "" && algorithm != s.validator.Algorithm {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret))
	if err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if err := s.validator.Validate(parsed, algorithm, s.now()); err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	return parsed.Subject(), nil
}

func (s *Service) signAccessToken(userID string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)
	builder := jwt.NewBuilder().
		Subject(userID).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		NotBefore(now.Add(-s.clockSkew)).
		Expiration(expiresAt)
	token, err := builder.Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

// purgeExpiredLocked drops stale challenges. Callers hold the lock.
func (s *Service) purgeExpiredLocked(now time.Time) {
	for token, challenge := range s.pending {
		if now.After(challenge.expiresAt) {
			delete(s.pending, token)
		}
	}
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
