package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/studyquest/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-for-testing"

func newTestService(t *testing.T, secret string, now time.Time) *hmacJWTService {
	t.Helper()
	svc, err := NewJWTService(config.AuthConfig{JWTSecret: secret})
	require.NoError(t, err)
	impl := svc.(*hmacJWTService)
	impl.timeFunc = func() time.Time { return now }
	return impl
}

func TestNewJWTServiceRejectsShortSecret(t *testing.T) {
	_, err := NewJWTService(config.AuthConfig{JWTSecret: "too-short"})
	assert.Error(t, err)
}

func TestGenerateAndValidateToken(t *testing.T) {
	fixedTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, testSecret, fixedTime)
	userID := uuid.New()

	token, err := svc.GenerateToken(context.Background(), userID, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixedTime.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)

	_, err = svc.GenerateToken(context.Background(), uuid.Nil, time.Hour)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken(t *testing.T) {
	fixedTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()

	issue := func(t *testing.T, secret string, at time.Time, lifetime time.Duration) string {
		t.Helper()
		token, err := newTestService(t, secret, at).GenerateToken(context.Background(), userID, lifetime)
		require.NoError(t, err)
		return token
	}
	sign := func(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
		t.Helper()
		token, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return token
	}

	tests := []struct {
		name    string
		token   func(t *testing.T) string
		wantErr error
	}{
		{
			name:  "valid",
			token: func(t *testing.T) string { return issue(t, testSecret, fixedTime, time.Hour) },
		},
		{
			name:  "expired within leeway",
			token: func(t *testing.T) string { return issue(t, testSecret, fixedTime.Add(-61*time.Minute), time.Hour) },
		},
		{
			name:    "expired",
			token:   func(t *testing.T) string { return issue(t, testSecret, fixedTime.Add(-2*time.Hour), time.Hour) },
			wantErr: ErrExpiredToken,
		},
		{
			name:    "issued in the future",
			token:   func(t *testing.T) string { return issue(t, testSecret, fixedTime.Add(time.Hour), time.Hour) },
			wantErr: ErrTokenNotYetValid,
		},
		{
			name:    "wrong secret",
			token:   func(t *testing.T) string { return issue(t, "wrong-secret-that-is-long-enough-for-testing", fixedTime, time.Hour) },
			wantErr: ErrInvalidToken,
		},
		{
			name:    "malformed",
			token:   func(t *testing.T) string { return "not.a.jwt" },
			wantErr: ErrInvalidToken,
		},
		{
			name: "subject is not a uuid",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{
					Subject:   "alice",
					ExpiresAt: jwt.NewNumericDate(fixedTime.Add(time.Hour)),
				})
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "missing expiry",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{
					Subject: userID.String(),
				})
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "other hmac algorithm",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS512, []byte(testSecret), jwt.RegisteredClaims{
					Subject:   userID.String(),
					ExpiresAt: jwt.NewNumericDate(fixedTime.Add(time.Hour)),
				})
			},
			wantErr: ErrInvalidToken,
		},
	}

	svc := newTestService(t, testSecret, fixedTime)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			claims, err := svc.ValidateToken(context.Background(), tc.token(t))
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, userID, claims.UserID)
		})
	}
}
