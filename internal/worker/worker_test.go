package worker

import (
	"context"
	"testing"
	"time"

	"github.com/bitleak/lmstfy/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/iot-aicha/stock-counter/internal/framework"
	"github.com/iot-aicha/stock-counter/pkg/lmstfyx"
	"github.com/iot-aicha/stock-counter/pkg/logger"
)

type idleSource struct{}

func (idleSource) Consume(string, time.Duration, time.Duration) (*framework.Message, error) {
	time.Sleep(5 * time.Millisecond)
	return nil, nil
}

func (idleSource) Ack(string, string) error { return nil }

func testConfigs() (*framework.SubscriberConfig, *framework.ProcessorConfig) {
	return &framework.SubscriberConfig{
			QueueName:    "shelf-check",
			Concurrency:  1,
			Timeout:      10 * time.Millisecond,
			TTR:          time.Second,
			ErrorBackoff: 10 * time.Millisecond,
		}, &framework.ProcessorConfig{
			Concurrency: 1,
			BufferSize:  4,
			Timeout:     time.Second,
		}
}

func countingProc(n *atomic.Int32) lmstfyx.Proc {
	return func(context.Context, *client.Job) *lmstfyx.JobResp {
		n.Inc()
		return &lmstfyx.JobResp{Action: lmstfyx.JobRespStatusSuccess}
	}
}

func TestTickerWorkerNextTick(t *testing.T) {
	sub, proc := testConfigs()
	handled := atomic.NewInt32(0)
	w, err := NewTickerWorker(context.Background(), "shelf-check", time.Hour, "shelf_check", sub, proc, countingProc(handled), logger.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, "shelf-check", w.GetName())
	assert.True(t, w.NextTick().IsZero())

	done := make(chan struct{})
	go func() {
		w.Start()
		close(done)
	}()

	// 首次立即触发，之后按周期排期
	require.Eventually(t, func() bool { return handled.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	next := w.NextTick()
	assert.False(t, next.IsZero())
	assert.WithinDuration(t, time.Now().Add(time.Hour), next, time.Minute)

	w.Shutdown()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
	w.Shutdown()
}

func TestQueueWorkerHasNoTick(t *testing.T) {
	sub, proc := testConfigs()
	w, err := NewWorkerInstance(context.Background(), "shelf-analyze", sub, proc, idleSource{}, countingProc(atomic.NewInt32(0)), logger.NewNopLogger())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		w.Start()
		close(done)
	}()
	assert.True(t, w.NextTick().IsZero())

	w.Shutdown()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestNewWorkerRejectsBadSource(t *testing.T) {
	sub, proc := testConfigs()
	_, err := NewWorkerInstance(context.Background(), "w", sub, proc, nil, countingProc(atomic.NewInt32(0)), logger.NewNopLogger())
	assert.Error(t, err)

	_, err = NewTickerWorker(context.Background(), "w", 0, "shelf_check", sub, proc, countingProc(atomic.NewInt32(0)), logger.NewNopLogger())
	assert.Error(t, err)
}

func TestTickerJobRoutesToAction(t *testing.T) {
	data, err := tickerJob("shelf_check")("job-1", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.JSONEq(t, `{"payload":{"data":{
		"request_id":"job-1","action_type":"shelf_check","id":"job-1","data":null,
		"metadata":{"due":"2024-05-01T12:00:00Z"}}}}`, string(data))
}
