package recovery

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig() Config {
	return Config{
		Retry: Backoff{
			Base:        time.Millisecond,
			Multiplier:  2,
			Cap:         5 * time.Millisecond,
			MaxAttempts: 3,
		},
		BreakerThreshold: 5,
		BreakerCooldown:  50 * time.Millisecond,
		BatchRetryLimit:  2,
		WaitDelay:        time.Millisecond,
	}
}

// mockPrompt answers every prompt with fixed choices.
type mockPrompt struct {
	errChoice   PromptChoice
	batchChoice BatchChoice
	errCalls    int
	batchCalls  int
}

func (m *mockPrompt) PromptError(ctx context.Context, rec ErrorRecord, guidance string) (PromptChoice, error) {
	m.errCalls++
	return m.errChoice, nil
}

func (m *mockPrompt) PromptBatchRetry(ctx context.Context, batch *BatchOperation) (BatchChoice, error) {
	m.batchCalls++
	return m.batchChoice, nil
}

func TestHandleError_ValidationSkips(t *testing.T) {
	e := NewEngine(fastConfig(), nil)

	res := e.HandleError(context.Background(),
		errors.New("frame 31 at 24 fps"),
		Context{Operation: "convert_timecode", ValidatingTimecode: true})

	if !res.Success || res.Action != ActionSkip {
		t.Errorf("validation result = %+v, want skip", res)
	}
	if res.Strategy != StrategySkip {
		t.Errorf("strategy = %v", res.Strategy)
	}
}

func TestHandleError_NetworkRetriesThenAborts(t *testing.T) {
	e := NewEngine(fastConfig(), nil)
	netErr := errors.New("connection reset by peer")
	ectx := Context{Operation: "get_track_list"}

	for i := 0; i < 3; i++ {
		res := e.HandleError(context.Background(), netErr, ectx)
		if res.Action != ActionRetry {
			t.Fatalf("attempt %d: action = %v, want retry", i, res.Action)
		}
		if res.Retry == nil || res.Retry.Attempt != i {
			t.Fatalf("attempt %d: retry context = %+v", i, res.Retry)
		}
	}

	res := e.HandleError(context.Background(), netErr, ectx)
	if res.Success || res.Action != ActionAbort {
		t.Fatalf("after budget: %+v, want terminal abort", res)
	}
	if res.Reason == "" {
		t.Error("terminal failure carries no guidance")
	}
}

func TestHandleError_SuccessResetsRetryBudget(t *testing.T) {
	e := NewEngine(fastConfig(), nil)
	netErr := errors.New("timeout")
	ectx := Context{Operation: "heartbeat"}

	e.HandleError(context.Background(), netErr, ectx)
	e.HandleError(context.Background(), netErr, ectx)
	e.RecordSuccess("heartbeat")

	res := e.HandleError(context.Background(), netErr, ectx)
	if res.Retry == nil || res.Retry.Attempt != 0 {
		t.Errorf("counter not reset: %+v", res.Retry)
	}
}

func TestHandleError_NetworkEscalatesToCircuitOpen(t *testing.T) {
	cfg := fastConfig()
	cfg.Retry.MaxAttempts = 100 // keep retrying so the breaker trips first
	e := NewEngine(cfg, nil)
	netErr := errors.New("timeout")

	var res RecoveryResult
	for i := 0; i < cfg.BreakerThreshold; i++ {
		res = e.HandleError(context.Background(), netErr, Context{Operation: "op"})
	}

	if res.Action != ActionCircuitOpen {
		t.Fatalf("action = %v, want circuit_open", res.Action)
	}
	if res.Success {
		t.Error("circuit open reported as success")
	}
	if res.Reason == "" {
		t.Error("circuit open carries no wait hint")
	}
	if e.Breaker().State() != BreakerOpen {
		t.Error("breaker not open")
	}
}

func TestHandleError_SessionReconnects(t *testing.T) {
	e := NewEngine(fastConfig(), nil)

	res := e.HandleError(context.Background(),
		errors.New("no session open"), Context{Operation: "get_session_name"})
	if res.Action != ActionReconnect {
		t.Errorf("action = %v, want reconnect", res.Action)
	}
}

func TestHandleError_SessionLockedPrompts(t *testing.T) {
	prompt := &mockPrompt{errChoice: ChoiceRetry}
	e := NewEngine(fastConfig(), prompt)

	res := e.HandleError(context.Background(),
		errors.New("session is locked"), Context{Operation: "create_memory_location"})
	if prompt.errCalls != 1 {
		t.Fatal("prompt not invoked")
	}
	if res.Action != ActionRetry {
		t.Errorf("action = %v", res.Action)
	}
}

func TestHandleError_UnclassifiedAbortsWithoutPrompt(t *testing.T) {
	e := NewEngine(fastConfig(), nil)

	res := e.HandleError(context.Background(),
		errors.New("something odd"), Context{Operation: "op"})
	if res.Success || res.Action != ActionAbort {
		t.Errorf("result = %+v, want abort fallback", res)
	}
}

func TestHandleError_BatchRecordsAndContinues(t *testing.T) {
	e := NewEngine(fastConfig(), nil)
	batch := NewBatchOperation(5)

	res := e.HandleError(context.Background(), errors.New("create failed"),
		Context{Operation: "create_memory_location", Batch: batch, ItemIndex: 2})

	if !res.Success || res.Action != ActionSkip {
		t.Errorf("mid-batch result = %+v", res)
	}
	if batch.FailureCount() != 1 {
		t.Errorf("failure not recorded: %d", batch.FailureCount())
	}
}

func TestFinishBatch_NoFailures(t *testing.T) {
	e := NewEngine(fastConfig(), nil)
	batch := NewBatchOperation(3)

	res := e.FinishBatch(context.Background(), batch)
	if !res.Success || res.Action == ActionReportFailures {
		t.Errorf("clean batch result = %+v", res)
	}
}

func TestFinishBatch_NoPromptReportsUpward(t *testing.T) {
	e := NewEngine(fastConfig(), nil)
	batch := NewBatchOperation(3)
	batch.RecordFailure(1, errors.New("x"))

	res := e.FinishBatch(context.Background(), batch)
	if res.Action != ActionReportFailures {
		t.Errorf("action = %v, want report_failures", res.Action)
	}
}

func TestFinishBatch_PromptedRetryBoundedByLimit(t *testing.T) {
	prompt := &mockPrompt{batchChoice: BatchRetryFailed}
	e := NewEngine(fastConfig(), prompt)
	batch := NewBatchOperation(3)
	batch.RecordFailure(0, errors.New("x"))

	// Two retry passes allowed, then failures are reported.
	for i := 0; i < 2; i++ {
		res := e.FinishBatch(context.Background(), batch)
		if res.Action != ActionRetry {
			t.Fatalf("pass %d: action = %v", i, res.Action)
		}
	}
	res := e.FinishBatch(context.Background(), batch)
	if res.Action != ActionReportFailures {
		t.Errorf("beyond limit: action = %v", res.Action)
	}
	if prompt.batchCalls != 2 {
		t.Errorf("prompt calls = %d", prompt.batchCalls)
	}
}

func TestFinishBatch_AbortChoice(t *testing.T) {
	prompt := &mockPrompt{batchChoice: BatchAbort}
	e := NewEngine(fastConfig(), prompt)
	batch := NewBatchOperation(2)
	batch.RecordFailure(0, errors.New("x"))

	res := e.FinishBatch(context.Background(), batch)
	if res.Success || res.Action != ActionAbort {
		t.Errorf("result = %+v", res)
	}
}

func TestHistory_BoundedAndConsecutive(t *testing.T) {
	h := NewHistory()

	for i := 0; i < 150; i++ {
		h.Append(errors.New("timeout"), "op", CategoryNetwork)
	}
	if h.Len() != 100 {
		t.Errorf("history len = %d, want 100", h.Len())
	}

	recs := h.Records()
	if last := recs[len(recs)-1]; last.Consecutive != 150 {
		t.Errorf("consecutive = %d, want 150", last.Consecutive)
	}

	// A different operation restarts the consecutive count.
	rec := h.Append(errors.New("timeout"), "other", CategoryNetwork)
	if rec.Consecutive != 1 {
		t.Errorf("consecutive after switch = %d", rec.Consecutive)
	}
}
