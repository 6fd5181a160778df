package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockLimiter(t *testing.T, cfg *Config) (*RateLimiter, redismock.ClientMock) {
	t.Helper()
	client, mock := redismock.NewClientMock()
	return NewRateLimiter(client, cfg), mock
}

func testLimiterConfig() *Config {
	return &Config{
		Enabled:         true,
		WindowDuration:  time.Minute,
		DefaultRequests: 10,
		ScanRequests:    3,
		AuthRequests:    5,
		AdminRequests:   20,
		HealthRequests:  50,
	}
}

// matchAnyEval matches the sliding-window script regardless of the
// time-derived arguments.
func matchAnyEval(expected, actual []interface{}) error {
	return nil
}

func TestIsAllowedBlocksClientOverLimit(t *testing.T) {
	limiter, mock := newMockLimiter(t, testLimiterConfig())

	// Window already holds more requests than the scan bucket permits.
	mock.CustomMatch(matchAnyEval).
		ExpectEval("", []string{"parkgate:ratelimit:10.0.0.1:scan"}, 0, 0, 0, 0).
		SetVal([]interface{}{int64(5), int64(-2)})

	result, err := limiter.IsAllowed(context.Background(), "10.0.0.1", RateLimitTypeScan)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 3, result.Limit)
	assert.Equal(t, 0, result.Remaining)
}

func TestIsAllowedBlocksClientAtExactLimit(t *testing.T) {
	limiter, mock := newMockLimiter(t, testLimiterConfig())

	// Exactly at the limit: the script reports the count this request would
	// have reached, one past the bucket size.
	mock.CustomMatch(matchAnyEval).
		ExpectEval("", []string{"parkgate:ratelimit:10.0.0.1:scan"}, 0, 0, 0, 0).
		SetVal([]interface{}{int64(4), int64(-1)})

	result, err := limiter.IsAllowed(context.Background(), "10.0.0.1", RateLimitTypeScan)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
}

func TestIsAllowedPermitsClientUnderLimit(t *testing.T) {
	limiter, mock := newMockLimiter(t, testLimiterConfig())

	mock.CustomMatch(matchAnyEval).
		ExpectEval("", []string{"parkgate:ratelimit:10.0.0.1:scan"}, 0, 0, 0, 0).
		SetVal([]interface{}{int64(1), int64(2)})

	result, err := limiter.IsAllowed(context.Background(), "10.0.0.1", RateLimitTypeScan)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 2, result.Remaining)
}

func TestIsAllowedRejectsUnexpectedScriptResult(t *testing.T) {
	limiter, mock := newMockLimiter(t, testLimiterConfig())

	mock.CustomMatch(matchAnyEval).
		ExpectEval("", []string{"parkgate:ratelimit:10.0.0.1:scan"}, 0, 0, 0, 0).
		SetVal([]interface{}{"not", "numbers"})

	_, err := limiter.IsAllowed(context.Background(), "10.0.0.1", RateLimitTypeScan)
	assert.Error(t, err)
}

func TestIsAllowedSkipsWhitelistedIPs(t *testing.T) {
	cfg := testLimiterConfig()
	cfg.WhitelistedIPs = []string{"192.168.1.1"}
	limiter, _ := newMockLimiter(t, cfg)

	// No redis expectations: a whitelisted client never reaches the store.
	result, err := limiter.IsAllowed(context.Background(), "192.168.1.1", RateLimitTypeAuth)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 5, result.Remaining)
}

func TestIsAllowedSkipsWhenDisabled(t *testing.T) {
	cfg := testLimiterConfig()
	cfg.Enabled = false
	limiter, _ := newMockLimiter(t, cfg)

	result, err := limiter.IsAllowed(context.Background(), "10.0.0.1", RateLimitTypeDefault)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestGetRateLimitTypeBuckets(t *testing.T) {
	cases := map[string]RateLimitType{
		"/health":                        RateLimitTypeHealth,
		"/ping":                          RateLimitTypeHealth,
		"/api/v1/admissions/scan":        RateLimitTypeScan,
		"/api/v1/auth/login":             RateLimitTypeAuth,
		"/api/v1/tickets/:id/void":       RateLimitTypeAdmin,
		"/api/v1/admissions/:id/override": RateLimitTypeAdmin,
		"/api/v1/tickets/flagged":        RateLimitTypeAdmin,
		"/api/v1/admissions":             RateLimitTypeAdmin,
		"/api/v1/tickets":                RateLimitTypeDefault,
	}

	for path, want := range cases {
		assert.Equal(t, want, getRateLimitType(path), path)
	}
}
