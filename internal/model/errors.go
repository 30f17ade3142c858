package model

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"

	apperrors "github.com/garyellow/companion-nlu-go/internal/errors"
	"github.com/garyellow/companion-nlu-go/internal/stringutil"
)

// Failure kinds reported by ErrorKind.
const (
	KindTimeout     = "timeout"
	KindCanceled    = "canceled"
	KindRateLimit   = "rate_limit"
	KindQuota       = "quota"
	KindAuth        = "auth"
	KindMalformed   = "malformed"
	KindUnavailable = "unavailable"
	KindNetwork     = "network"
	KindBadRequest  = "bad_request"
	KindUnknown     = "unknown"
)

// ErrorKind labels a service failure for metrics and logs. It does not
// decide anything: every kind leads to the same deterministic fallback.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, apperrors.ErrMalformedOutput):
		return KindMalformed
	case errors.Is(err, apperrors.ErrModelUnavailable):
		return KindUnavailable
	}

	var geminiErr genai.APIError
	if errors.As(err, &geminiErr) {
		if kind := kindFromStatus(geminiErr.Code); kind != "" {
			return kind
		}
	}
	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		if kind := kindFromStatus(openaiErr.StatusCode); kind != "" {
			return kind
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case stringutil.ContainsAny(msg, "quota", "daily limit", "monthly limit", "billing"):
		return KindQuota
	case stringutil.ContainsAny(msg, "rate limit", "too many requests", "resource_exhausted", "429"):
		return KindRateLimit
	case stringutil.ContainsAny(msg, "unauthorized", "unauthenticated", "invalid api key", "permission denied", "401", "403"):
		return KindAuth
	case stringutil.ContainsAny(msg, "unavailable", "overloaded", "bad gateway", "internal server error", "502", "503", "500"):
		return KindUnavailable
	case stringutil.ContainsAny(msg, "connection", "no such host", "eof", "tls"):
		return KindNetwork
	case stringutil.ContainsAny(msg, "timeout", "deadline"):
		return KindTimeout
	}
	return KindUnknown
}

func kindFromStatus(code int) string {
	switch {
	case code == http.StatusTooManyRequests:
		return KindRateLimit
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return KindAuth
	case code == http.StatusRequestTimeout, code == http.StatusGatewayTimeout:
		return KindTimeout
	case code >= 500 && code < 600:
		return KindUnavailable
	case code >= 400 && code < 500:
		return KindBadRequest
	}
	return ""
}
