package instrumentation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome labels
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds all metric instruments for the agent
type Metrics struct {
	// Authorization server calls
	AuthServerCallsTotal metric.Int64Counter
	AuthServerDuration   metric.Float64Histogram

	// Login and session flows
	LoginStarted   metric.Int64Counter
	LoginCompleted metric.Int64Counter
	TokenRefreshed metric.Int64Counter
	LogoutTotal    metric.Int64Counter

	// ErrorResponses counts error responses by machine code
	ErrorResponses metric.Int64Counter
}

func newMetrics(authServerMeter, loginMeter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error
	m.AuthServerCallsTotal, err = authServerMeter.Int64Counter(
		"oauth_agent.authserver.calls.total",
		metric.WithDescription("Number of calls made to the authorization server"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create authserver.calls.total counter: %w", err)
	}

	m.AuthServerDuration, err = authServerMeter.Float64Histogram(
		"oauth_agent.authserver.call.duration",
		metric.WithDescription("Authorization server call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create authserver.call.duration histogram: %w", err)
	}

	m.LoginStarted, err = loginMeter.Int64Counter(
		"oauth_agent.login.started",
		metric.WithDescription("Number of logins started"),
		metric.WithUnit("{login}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create login.started counter: %w", err)
	}

	m.LoginCompleted, err = loginMeter.Int64Counter(
		"oauth_agent.login.completed",
		metric.WithDescription("Number of logins completed"),
		metric.WithUnit("{login}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create login.completed counter: %w", err)
	}

	m.TokenRefreshed, err = loginMeter.Int64Counter(
		"oauth_agent.token.refreshed",
		metric.WithDescription("Number of token refreshes"),
		metric.WithUnit("{refresh}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token.refreshed counter: %w", err)
	}

	m.LogoutTotal, err = loginMeter.Int64Counter(
		"oauth_agent.logout.total",
		metric.WithDescription("Number of logouts"),
		metric.WithUnit("{logout}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create logout.total counter: %w", err)
	}

	m.ErrorResponses, err = loginMeter.Int64Counter(
		"oauth_agent.error.responses",
		metric.WithDescription("Number of error responses returned to the SPA"),
		metric.WithUnit("{response}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create error.responses counter: %w", err)
	}

	return m, nil
}

func outcome(success bool) string {
	if success {
		return OutcomeSuccess
	}
	return OutcomeFailure
}

// RecordAuthServerCall records one call to the authorization server
func (m *Metrics) RecordAuthServerCall(ctx context.Context, grant string, statusCode int, durationMs float64) {
	attrs := metric.WithAttributes(
		attribute.String(AttrGrant, grant),
		attribute.Int(AttrHTTPStatusCode, statusCode),
	)
	m.AuthServerCallsTotal.Add(ctx, 1, attrs)
	m.AuthServerDuration.Record(ctx, durationMs, attrs)
}

// RecordLoginStarted records a login start, mode is "par" or "direct"
func (m *Metrics) RecordLoginStarted(ctx context.Context, mode string) {
	m.LoginStarted.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrLoginMode, mode)))
}

func (m *Metrics) RecordLoginCompleted(ctx context.Context, success bool) {
	m.LoginCompleted.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrOutcome, outcome(success))))
}

func (m *Metrics) RecordTokenRefresh(ctx context.Context, success bool) {
	m.TokenRefreshed.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrOutcome, outcome(success))))
}

func (m *Metrics) RecordLogout(ctx context.Context) {
	m.LogoutTotal.Add(ctx, 1)
}

func (m *Metrics) RecordErrorResponse(ctx context.Context, code string, status int) {
	m.ErrorResponses.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrErrorCode, code),
		attribute.Int(AttrHTTPStatusCode, status),
	))
}
