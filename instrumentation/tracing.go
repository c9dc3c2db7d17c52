package instrumentation

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span and metric attribute keys. Never attach token, code or cookie values.
const (
	AttrGrant          = "oauth.grant"
	AttrLoginMode      = "oauth.login.mode"
	AttrResponseMode   = "oauth.response_mode"
	AttrOutcome        = "oauth.outcome"
	AttrErrorCode      = "oauth.error"
	AttrHTTPStatusCode = "http.status_code"
	AttrEndpoint       = "http.endpoint"
)

// RecordError records an error on a span with proper status codes (nil-safe)
func RecordError(span trace.Span, err error) {
	if span != nil && err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess marks a span as successful (nil-safe)
func SetSpanSuccess(span trace.Span) {
	if span != nil {
		span.SetStatus(codes.Ok, "")
	}
}

// AddAuthServerAttributes describes an outbound call to the authorization server
func AddAuthServerAttributes(span trace.Span, grant, endpoint string, statusCode int) {
	if span == nil {
		return
	}
	span.SetAttributes(
		attribute.String(AttrGrant, grant),
		attribute.String(AttrEndpoint, endpoint),
	)
	if statusCode != 0 {
		span.SetAttributes(attribute.Int(AttrHTTPStatusCode, statusCode))
	}
}
