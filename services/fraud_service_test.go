package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bankly/config"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScorer(t *testing.T, handler http.HandlerFunc) *HTTPFraudScorer {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPFraudScorer(config.FraudConfig{
		URL:     srv.URL,
		APIKey:  "test-key",
		Timeout: time.Second,
	})
}

var sampleFeatures = FraudFeatures{
	UserID:     "7b0c6f0e-7d7c-4f0a-9a55-0a4f6f0c1e11",
	Amount:     decimal.RequireFromString("250.75"),
	AccountAge: 12,
	Frequency:  4,
}

func TestHTTPFraudScorerSendsInputsWithBearerKey(t *testing.T) {
	var (
		gotAuth   string
		gotMethod string
		gotBody   map[string]map[string]interface{}
	)
	scorer := newTestScorer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotMethod = r.Method
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"label":"legit","score":0.12}`))
	})

	verdict, err := scorer.Score(context.Background(), sampleFeatures)
	require.NoError(t, err)
	assert.Equal(t, FraudVerdict{Label: "legit", Score: 0.12}, verdict)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "Bearer test-key", gotAuth)
	inputs := gotBody["inputs"]
	require.NotNil(t, inputs)
	assert.Equal(t, sampleFeatures.UserID, inputs["userId"])
	assert.InDelta(t, 250.75, inputs["amount"], 1e-9)
	assert.EqualValues(t, 12, inputs["accountAge"])
	assert.EqualValues(t, 4, inputs["frequency"])
}

func TestHTTPFraudScorerResponseShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want FraudVerdict
	}{
		{name: "object", body: `{"label":"fraud","score":0.91}`, want: FraudVerdict{Label: "fraud", Score: 0.91}},
		{name: "list", body: `[{"label":"fraud","score":0.85},{"label":"legit","score":0.15}]`, want: FraudVerdict{Label: "fraud", Score: 0.85}},
		{name: "nested list", body: ` [[{"label":"legit","score":0.7}]] `, want: FraudVerdict{Label: "legit", Score: 0.7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := newTestScorer(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			verdict, err := scorer.Score(context.Background(), sampleFeatures)
			require.NoError(t, err)
			assert.Equal(t, tt.want, verdict)
		})
	}
}

func TestHTTPFraudScorerFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusServiceUnavailable, body: `{"error":"loading"}`},
		{name: "malformed", status: http.StatusOK, body: `not json`},
		{name: "empty list", status: http.StatusOK, body: `[]`},
		{name: "empty body", status: http.StatusOK, body: ``},
		{name: "score out of range", status: http.StatusOK, body: `{"label":"fraud","score":1.5}`},
		{name: "missing label", status: http.StatusOK, body: `{"score":0.5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := newTestScorer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := scorer.Score(context.Background(), sampleFeatures)
			assert.ErrorIs(t, err, ErrFraudCheckUnavailable)
		})
	}
}

func TestHTTPFraudScorerHonoursContextDeadline(t *testing.T) {
	release := make(chan struct{})
	scorer := newTestScorer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := scorer.Score(ctx, sampleFeatures)
	assert.ErrorIs(t, err, ErrFraudCheckUnavailable)
	assert.Less(t, time.Since(start), time.Second)
}

func TestFraudPolicyBlocks(t *testing.T) {
	policy := DefaultFraudPolicy()

	assert.True(t, policy.Blocks(FraudVerdict{Label: "fraud", Score: 0.81}))
	assert.False(t, policy.Blocks(FraudVerdict{Label: "fraud", Score: 0.8}))
	assert.False(t, policy.Blocks(FraudVerdict{Label: "legit", Score: 0.99}))
	assert.False(t, policy.Blocks(FraudVerdict{Label: "Fraud", Score: 0.99}))
}

func TestNewFraudPolicyFromConfig(t *testing.T) {
	policy := NewFraudPolicy(config.FraudConfig{
		Timeout:         time.Second,
		BlockLabel:      "scam",
		BlockThreshold:  0.5,
		FrequencyWindow: time.Hour,
		FailOpen:        true,
	})

	assert.True(t, policy.Blocks(FraudVerdict{Label: "scam", Score: 0.6}))
	assert.Equal(t, time.Hour, policy.FrequencyWindow)
	assert.True(t, policy.FailOpen)
}

func TestValidateAmount(t *testing.T) {
	for _, ok := range []string{"0.01", "1", "100.5", "99999.99", "9999999999999.99"} {
		assert.NoError(t, validateAmount(decimal.RequireFromString(ok)), ok)
	}
	for _, bad := range []string{"0", "-1", "0.001", "10.999", "10000000000000", "100000000000000000000"} {
		assert.ErrorIs(t, validateAmount(decimal.RequireFromString(bad)), ErrInvalidAmount, bad)
	}
}
