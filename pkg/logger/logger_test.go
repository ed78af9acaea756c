package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestExtractFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &ZapLogger{logger: zap.New(core)}

	ctx := WithTraceID(context.Background(), "run-1")
	ctx = WithWorkerID(ctx, 2)
	ctx = WithActionType(ctx, "shelf_check")
	l.Infof(ctx, "processed %d items", 3)

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "processed 3 items", entries[0].Message)
		fields := entries[0].ContextMap()
		assert.Equal(t, "run-1", fields["trace_id"])
		assert.Equal(t, int64(2), fields["worker_id"])
		assert.Equal(t, "shelf_check", fields["action_type"])
	}
	assert.Equal(t, "run-1", TraceID(ctx))
}

func TestNewZapLoggerUnknownLevel(t *testing.T) {
	l, err := NewZapLogger("verbose")
	assert.NoError(t, err)
	assert.NotNil(t, l)
}
