package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kopikita/backend-kopi/internal/catalog"
	"github.com/kopikita/backend-kopi/internal/common"
)

type testClock struct {
	current time.Time
}

func (c *testClock) now() time.Time { return c.current }

func (c *testClock) advance(d time.Duration) { c.current = c.current.Add(d) }

func newTestService(t *testing.T, clock *testClock) *Service {
	t.Helper()
	cat, err := catalog.NewService(catalog.Config{
		Menu: []catalog.MenuItem{{ID: "m_1", Name: "Kopi O"}},
		Users: []catalog.User{{
			ID:    "u_001",
			Name:  "Aina Rahman",
			Phone: "+60123456789",
			Email: "aina@example.com",
		}},
	})
	require.NoError(t, err)

	svc, err := NewService(Config{
		Catalog:        cat,
		Secret:         "test-secret-please-rotate",
		AccessTokenTTL: time.Hour,
		OTPTTL:         2 * time.Minute,
		DemoCode:       "123456",
		Issuer:         "kopikita",
		Audience:       "kopikita-app",
		Now:            clock.now,
	})
	require.NoError(t, err)
	return svc
}

func TestOTPLoginFlow(t *testing.T) {
	clock := &testClock{current: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)}
	svc := newTestService(t, clock)

	challenge, err := svc.RequestOTP("+60123456789")
	require.NoError(t, err)
	require.NotEmpty(t, challenge.Token)
	require.Equal(t, "123456", challenge.DemoCode)

	session, err := svc.VerifyOTP(challenge.Token, "123456")
	require.NoError(t, err)
	require.Equal(t, "u_001", session.User.ID)
	require.NotEmpty(t, session.AccessToken)

	userID, err := svc.ParseAccessToken(session.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "u_001", userID)

	// a challenge is single use
	_, err = svc.VerifyOTP(challenge.Token, "123456")
	requireAppCode(t, err, "OTP_INVALID")
}

func TestRequestOTPByEmail(t *testing.T) {
	clock := &testClock{current: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)}
	svc := newTestService(t, clock)

	_, err := svc.RequestOTP("AINA@example.com")
	require.NoError(t, err)
}

func TestRequestOTPUnknownContact(t *testing.T) {
	clock := &testClock{current: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)}
	svc := newTestService(t, clock)

	_, err := svc.RequestOTP("+60000000000")
	requireAppCode(t, err, "USER_NOT_FOUND")

	_, err = svc.RequestOTP("   ")
	requireAppCode(t, err, "VALIDATION_ERROR")
}

func TestVerifyOTPExpiry(t *testing.T) {
	clock := &testClock{current: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)}
	svc := newTestService(t, clock)

	challenge, err := svc.RequestOTP("+60123456789")
	require.NoError(t, err)

	clock.advance(2*time.Minute + time.Second)
	_, err = svc.VerifyOTP(challenge.Token, "123456")
	requireAppCode(t, err, "OTP_EXPIRED")
}

func TestVerifyOTPWrongCodeBurnsChallenge(t *testing.T) {
	clock := &testClock{current: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)}
	svc := newTestService(t, clock)

	challenge, err := svc.RequestOTP("+60123456789")
	require.NoError(t, err)

	for i := 0; i < maxOTPAttempts; i++ {
		_, err = svc.VerifyOTP(challenge.Token, "000000")
		requireAppCode(t, err, "OTP_INVALID")
	}
	// even the right code fails once the challenge is burnt
	_, err = svc.VerifyOTP(challenge.Token, "123456")
	requireAppCode(t, err, "OTP_INVALID")
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	clock := &testClock{current: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)}
	svc := newTestService(t, clock)

	challenge, err := svc.RequestOTP("+60123456789")
	require.NoError(t, err)
	session, err := svc.VerifyOTP(challenge.Token, "123456")
	require.NoError(t, err)

	clock.advance(2 * time.Hour)
	_, err = svc.ParseAccessToken(session.AccessToken)
	requireAppCode(t, err, "UNAUTHORIZED")
}

func TestParseAccessTokenRejectsGarbage(t *testing.T) {
	clock := &testClock{current: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)}
	svc := newTestService(t, clock)

	_, err := svc.ParseAccessToken("")
	requireAppCode(t, err, "UNAUTHORIZED")

	_, err = svc.ParseAccessToken("not.a.jwt")
	requireAppCode(t, err, "UNAUTHORIZED")
}

func requireAppCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := common.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	require.Equal(t, code, appErr.Code)
}
