package sentry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitialize_EmptyDSN(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Initialize(Config{DSN: ""}))
}

func TestInitialize_InvalidDSN(t *testing.T) {
	// Cannot use t.Parallel() as Sentry uses global state
	err := Initialize(Config{DSN: "not a dsn"})
	assert.Error(t, err)
}

func TestCapture_NilErrorIsNoop(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		CaptureException(nil)
		CaptureExceptionWithContext(context.Background(), nil, nil)
	})
}

func TestCaptureExceptionWithContext_NoHub(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		CaptureExceptionWithContext(context.Background(), errors.New("boom"), map[string]string{"service": "classifier"})
	})
}
