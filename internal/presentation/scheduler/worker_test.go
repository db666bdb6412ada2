package scheduler_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Builder-Lawyers/execution-service/internal/application/events"
	"github.com/Builder-Lawyers/execution-service/internal/application/handlers"
	"github.com/Builder-Lawyers/execution-service/internal/domain/consts"
	"github.com/Builder-Lawyers/execution-service/internal/presentation/scheduler"
	"github.com/Builder-Lawyers/execution-service/internal/testinfra"
	"github.com/Builder-Lawyers/execution-service/internal/testinfra/fakes"
	"github.com/stretchr/testify/require"
)

func newWorker(metrics *fakes.Metrics) *scheduler.ExecutionWorker {
	return scheduler.NewExecutionWorker(uowFactory, metrics, scheduler.WorkerConfig{Interval: 10 * time.Millisecond})
}

func TestSweepDrivesJobToFinished(t *testing.T) {
	ctx := context.Background()
	testinfra.Reset(ctx)
	confirmPayment(t, "e1", "os-1")
	metrics := fakes.NewMetrics()
	worker := newWorker(metrics)

	expected := []consts.ExecutionStatus{
		consts.ExecutionStatusDiagnosing,
		consts.ExecutionStatusRepairing,
		consts.ExecutionStatusFinished,
	}
	for _, status := range expected {
		advanced, err := worker.Sweep(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, advanced)
		require.Equal(t, status, loadJob(t, "os-1").Status)
	}

	advanced, err := worker.Sweep(ctx)
	require.NoError(t, err)
	require.Zero(t, advanced)

	job := loadJob(t, "os-1")
	require.NotNil(t, job.FinishedAt)
	require.Nil(t, job.LastError)

	outbox := loadOutbox(t)
	require.Equal(t, []string{"ExecutionStarted", "ExecutionProgressed", "ExecutionProgressed", "ExecutionFinished"},
		eventTypes(outbox))

	var diagnosing, repairing events.ExecutionProgressed
	require.NoError(t, json.Unmarshal(outbox[1].Payload, &diagnosing))
	require.NoError(t, json.Unmarshal(outbox[2].Payload, &repairing))
	require.Equal(t, "Diagnosing", diagnosing.Status)
	require.Equal(t, "Repairing", repairing.Status)
	require.Equal(t, "c-os-1", diagnosing.CorrelationID)

	var finished events.ExecutionFinished
	require.NoError(t, json.Unmarshal(outbox[3].Payload, &finished))
	require.Equal(t, "Finished", finished.Status)
	require.Equal(t, job.ID, finished.JobID)
	require.GreaterOrEqual(t, finished.DurationSeconds, 0.0)
	require.WithinDuration(t, *job.FinishedAt, finished.FinishedAt, time.Millisecond)

	require.Equal(t, []fakes.Transition{
		{From: consts.ExecutionStatusQueued, To: consts.ExecutionStatusDiagnosing},
		{From: consts.ExecutionStatusDiagnosing, To: consts.ExecutionStatusRepairing},
		{From: consts.ExecutionStatusRepairing, To: consts.ExecutionStatusFinished},
	}, metrics.TransitionsSnapshot())
}

func TestSweepAdvancesEveryActiveJobOneStep(t *testing.T) {
	ctx := context.Background()
	testinfra.Reset(ctx)
	confirmPayment(t, "e1", "os-1")
	worker := newWorker(fakes.NewMetrics())

	_, err := worker.Sweep(ctx)
	require.NoError(t, err)
	confirmPayment(t, "e2", "os-2")

	advanced, err := worker.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, advanced)
	require.Equal(t, consts.ExecutionStatusRepairing, loadJob(t, "os-1").Status)
	require.Equal(t, consts.ExecutionStatusDiagnosing, loadJob(t, "os-2").Status)
}

func TestSweepSkipsCanceledJob(t *testing.T) {
	ctx := context.Background()
	testinfra.Reset(ctx)
	confirmPayment(t, "e1", "os-1")
	worker := newWorker(fakes.NewMetrics())

	_, err := worker.Sweep(ctx)
	require.NoError(t, err)

	_, err = handlers.NewOsCanceled(uowFactory, fakes.NewMetrics()).Handle(ctx, events.OsCanceled{
		EventID: "e2", OsID: "os-1", Reason: "customer request",
	})
	require.NoError(t, err)

	advanced, err := worker.Sweep(ctx)
	require.NoError(t, err)
	require.Zero(t, advanced)

	job := loadJob(t, "os-1")
	require.Equal(t, consts.ExecutionStatusCanceled, job.Status)
	require.Nil(t, job.FinishedAt)
	require.Equal(t, []string{"ExecutionStarted", "ExecutionProgressed", "ExecutionCanceled"}, eventTypes(loadOutbox(t)))
}

func TestWorkerStartStopsOnCancel(t *testing.T) {
	testinfra.Reset(context.Background())
	confirmPayment(t, "e1", "os-1")
	worker := newWorker(fakes.NewMetrics())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Start(ctx) }()

	require.Eventually(t, func() bool {
		return loadJob(t, "os-1").Status == consts.ExecutionStatusFinished
	}, 5*time.Second, 20*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}
