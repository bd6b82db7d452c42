package recovery

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Strategy names the recovery approach chosen for a failure.
type Strategy string

const (
	StrategyRetryBackoff Strategy = "retry_with_backoff"
	StrategyReconnect    Strategy = "reconnect"
	StrategySkip         Strategy = "skip_and_continue"
	StrategyPromptUser   Strategy = "prompt_user"
	StrategyCircuitBreak Strategy = "circuit_break"
	StrategyPartialRetry Strategy = "partial_retry"
	StrategyAbort        Strategy = "abort"
)

// Action tells the caller what to do next.
type Action string

const (
	ActionRetry          Action = "retry"
	ActionSkip           Action = "skip"
	ActionAbort          Action = "abort"
	ActionReconnect      Action = "reconnect"
	ActionCircuitOpen    Action = "circuit_open"
	ActionReportFailures Action = "report_failures"
)

// RecoveryResult is the engine's decision for one failure. Success=false
// with ActionAbort is always unrecoverable.
type RecoveryResult struct {
	Success  bool
	Strategy Strategy
	Action   Action
	Reason   string
	Retry    *RetryContext
}

// RetryContext reports the attempt number and the delay that was applied
// before an ActionRetry result was returned.
type RetryContext struct {
	Attempt int
	Delay   time.Duration
}

// PromptChoice is the user's pick from the single-failure menu.
type PromptChoice string

const (
	ChoiceRetry PromptChoice = "retry"
	ChoiceSkip  PromptChoice = "skip"
	ChoiceWait  PromptChoice = "wait"
	ChoiceAbort PromptChoice = "abort"
)

// BatchChoice is the user's pick from the batch-retry menu.
type BatchChoice string

const (
	BatchRetryFailed BatchChoice = "retry_failed"
	BatchSkipFailed  BatchChoice = "skip_failed"
	BatchAbort       BatchChoice = "abort"
)

// PromptSink is the optional interactive channel. When nil, Prompt-User
// degrades to Abort and batch negotiation degrades to reporting failures
// upward.
type PromptSink interface {
	// PromptError presents a failure and actionable guidance, returning
	// one of retry/skip/wait/abort.
	PromptError(ctx context.Context, rec ErrorRecord, guidance string) (PromptChoice, error)

	// PromptBatchRetry offers a retry pass over a batch's failed items,
	// returning one of retry_failed/skip_failed/abort.
	PromptBatchRetry(ctx context.Context, batch *BatchOperation) (BatchChoice, error)
}

// Config parameterizes the engine.
type Config struct {
	Retry            Backoff
	BreakerThreshold int
	BreakerCooldown  time.Duration
	BatchRetryLimit  int
	// WaitDelay is how long a user-chosen "wait" pauses before retrying.
	WaitDelay time.Duration
}

// DefaultConfig returns the standard recovery parameters.
func DefaultConfig() Config {
	return Config{
		Retry:            DefaultRetryBackoff(),
		BreakerThreshold: 5,
		BreakerCooldown:  60 * time.Second,
		BatchRetryLimit:  2,
		WaitDelay:        10 * time.Second,
	}
}

// retryKey identifies a retry counter by failure category and operation.
type retryKey struct {
	Category  Category
	Operation string
}

type retryCounter struct {
	attempts int
	last     time.Time
}

// Engine turns a raw failure plus its operation context into one
// deterministic recovery action.
type Engine struct {
	cfg     Config
	breaker *CircuitBreaker
	history *History
	prompt  PromptSink
	log     *slog.Logger

	mu      sync.Mutex
	retries map[retryKey]*retryCounter
}

// NewEngine creates an engine. prompt may be nil for non-interactive use.
func NewEngine(cfg Config, prompt PromptSink) *Engine {
	if cfg.Retry.Base == 0 {
		cfg.Retry = DefaultRetryBackoff()
	}
	if cfg.BatchRetryLimit == 0 {
		cfg.BatchRetryLimit = 2
	}
	if cfg.WaitDelay == 0 {
		cfg.WaitDelay = 10 * time.Second
	}
	return &Engine{
		cfg:     cfg,
		breaker: NewCircuitBreaker(cfg.BreakerThreshold, cfg.BreakerCooldown),
		history: NewHistory(),
		prompt:  prompt,
		log:     slog.Default(),
		retries: make(map[retryKey]*retryCounter),
	}
}

// Breaker exposes the circuit breaker for pre-flight checks.
func (e *Engine) Breaker() *CircuitBreaker { return e.breaker }

// History exposes the bounded error history.
func (e *Engine) History() *History { return e.history }

// RecordSuccess resets failure bookkeeping for an operation after it
// succeeds: the breaker closes and the operation's retry counters clear.
func (e *Engine) RecordSuccess(operation string) {
	e.breaker.RecordSuccess()

	e.mu.Lock()
	defer e.mu.Unlock()
	for k := range e.retries {
		if k.Operation == operation {
			delete(e.retries, k)
		}
	}
}

// HandleError classifies err, records it, and returns the recovery
// decision. Retry decisions block through the backoff wait before
// returning, so the caller resends immediately on ActionRetry.
func (e *Engine) HandleError(ctx context.Context, err error, ectx Context) RecoveryResult {
	category := Classify(err, ectx)
	rec := e.history.Append(err, ectx.Operation, category)

	e.log.Debug("handling failure",
		"operation", ectx.Operation,
		"category", category,
		"consecutive", rec.Consecutive,
		"error", err)

	switch category {
	case CategoryNetwork:
		return e.handleNetwork(ctx, err, ectx, rec)
	case CategorySession:
		return e.handleSession(ctx, err, rec)
	case CategoryValidation:
		return RecoveryResult{
			Success:  true,
			Strategy: StrategySkip,
			Action:   ActionSkip,
			Reason:   fmt.Sprintf("invalid item skipped: %v", err),
		}
	case CategorySystem:
		return e.handleSystem(ctx, err, rec)
	case CategoryBatch:
		return e.handleBatchItem(err, ectx)
	default:
		return e.promptOrAbort(ctx, rec,
			"an unexpected error occurred; retry the operation or abort the import")
	}
}

func (e *Engine) handleNetwork(ctx context.Context, err error, ectx Context, rec ErrorRecord) RecoveryResult {
	e.breaker.RecordFailure()

	if e.breaker.State() == BreakerOpen {
		wait := e.breaker.RetryIn().Round(time.Second)
		return RecoveryResult{
			Success:  false,
			Strategy: StrategyCircuitBreak,
			Action:   ActionCircuitOpen,
			Reason:   fmt.Sprintf("too many consecutive network failures; the host channel is paused, retry in %s", wait),
		}
	}

	attempt := e.nextAttempt(CategoryNetwork, ectx.Operation)
	if e.cfg.Retry.Exhausted(attempt) {
		return RecoveryResult{
			Success:  false,
			Strategy: StrategyRetryBackoff,
			Action:   ActionAbort,
			Reason: fmt.Sprintf("%s failed after %d attempts: %v; check that the host application is running and its RPC service is enabled",
				ectx.Operation, e.cfg.Retry.MaxAttempts, err),
		}
	}

	delay := e.cfg.Retry.Delay(attempt)
	select {
	case <-ctx.Done():
		return RecoveryResult{
			Success:  false,
			Strategy: StrategyRetryBackoff,
			Action:   ActionAbort,
			Reason:   "retry wait interrupted by shutdown",
		}
	case <-time.After(delay):
	}

	return RecoveryResult{
		Success:  true,
		Strategy: StrategyRetryBackoff,
		Action:   ActionRetry,
		Reason:   fmt.Sprintf("transient network failure, retrying (attempt %d)", attempt+1),
		Retry:    &RetryContext{Attempt: attempt, Delay: delay},
	}
}

func (e *Engine) handleSession(ctx context.Context, err error, rec ErrorRecord) RecoveryResult {
	if SessionLocked(err) {
		return e.promptOrAbort(ctx, rec,
			"the session is locked by the host; unlock it (close any modal dialogs) and retry")
	}
	return RecoveryResult{
		Success:  true,
		Strategy: StrategyReconnect,
		Action:   ActionReconnect,
		Reason:   fmt.Sprintf("session failure, reconnecting: %v", err),
	}
}

func (e *Engine) handleSystem(ctx context.Context, err error, rec ErrorRecord) RecoveryResult {
	if HostUnreachable(err) {
		return e.promptOrAbort(ctx, rec,
			"the host application appears to not be running; start it, open a session, and retry")
	}
	return RecoveryResult{
		Success:  true,
		Strategy: StrategyReconnect,
		Action:   ActionReconnect,
		Reason:   fmt.Sprintf("system failure, reconnecting: %v", err),
	}
}

// handleBatchItem records a mid-batch failure and lets the batch proceed.
// Negotiation over the accumulated failures happens in FinishBatch.
func (e *Engine) handleBatchItem(err error, ectx Context) RecoveryResult {
	ectx.Batch.RecordFailure(ectx.ItemIndex, err)
	return RecoveryResult{
		Success:  true,
		Strategy: StrategyPartialRetry,
		Action:   ActionSkip,
		Reason:   fmt.Sprintf("item %d failed, batch continues: %v", ectx.ItemIndex, err),
	}
}

// FinishBatch runs the end-of-batch negotiation. With failures recorded
// it offers a retry pass through the prompt sink, bounded by the batch
// retry limit; without an interactive channel the failures are reported
// upward untouched.
func (e *Engine) FinishBatch(ctx context.Context, batch *BatchOperation) RecoveryResult {
	if batch.FailureCount() == 0 {
		return RecoveryResult{Success: true, Strategy: StrategyPartialRetry, Action: ActionSkip}
	}

	if e.prompt == nil || !batch.NoteRetry(e.cfg.BatchRetryLimit) {
		return RecoveryResult{
			Success:  true,
			Strategy: StrategyPartialRetry,
			Action:   ActionReportFailures,
			Reason:   fmt.Sprintf("%d of %d items failed", batch.FailureCount(), batch.Total),
		}
	}

	choice, err := e.prompt.PromptBatchRetry(ctx, batch)
	if err != nil {
		return RecoveryResult{
			Success:  true,
			Strategy: StrategyPartialRetry,
			Action:   ActionReportFailures,
			Reason:   fmt.Sprintf("batch prompt failed (%v); reporting %d failures", err, batch.FailureCount()),
		}
	}

	switch choice {
	case BatchRetryFailed:
		return RecoveryResult{
			Success:  true,
			Strategy: StrategyPartialRetry,
			Action:   ActionRetry,
			Reason:   fmt.Sprintf("retrying %d failed items", batch.FailureCount()),
		}
	case BatchAbort:
		return RecoveryResult{
			Success:  false,
			Strategy: StrategyPartialRetry,
			Action:   ActionAbort,
			Reason:   "batch aborted by user",
		}
	default:
		return RecoveryResult{
			Success:  true,
			Strategy: StrategyPartialRetry,
			Action:   ActionReportFailures,
			Reason:   fmt.Sprintf("skipping %d failed items", batch.FailureCount()),
		}
	}
}

// promptOrAbort asks the interactive sink for a decision, degrading to
// Abort when no sink is configured.
func (e *Engine) promptOrAbort(ctx context.Context, rec ErrorRecord, guidance string) RecoveryResult {
	if e.prompt == nil {
		return RecoveryResult{
			Success:  false,
			Strategy: StrategyPromptUser,
			Action:   ActionAbort,
			Reason:   guidance,
		}
	}

	choice, err := e.prompt.PromptError(ctx, rec, guidance)
	if err != nil {
		return RecoveryResult{
			Success:  false,
			Strategy: StrategyPromptUser,
			Action:   ActionAbort,
			Reason:   fmt.Sprintf("prompt failed: %v", err),
		}
	}

	switch choice {
	case ChoiceRetry:
		return RecoveryResult{Success: true, Strategy: StrategyPromptUser, Action: ActionRetry, Reason: "user chose retry"}
	case ChoiceSkip:
		return RecoveryResult{Success: true, Strategy: StrategyPromptUser, Action: ActionSkip, Reason: "user chose skip"}
	case ChoiceWait:
		select {
		case <-ctx.Done():
			return RecoveryResult{Success: false, Strategy: StrategyPromptUser, Action: ActionAbort, Reason: "wait interrupted by shutdown"}
		case <-time.After(e.cfg.WaitDelay):
		}
		return RecoveryResult{Success: true, Strategy: StrategyPromptUser, Action: ActionRetry, Reason: "user chose wait"}
	default:
		return RecoveryResult{Success: false, Strategy: StrategyPromptUser, Action: ActionAbort, Reason: "user chose abort"}
	}
}

func (e *Engine) nextAttempt(cat Category, op string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := retryKey{Category: cat, Operation: op}
	c, ok := e.retries[key]
	if !ok {
		c = &retryCounter{}
		e.retries[key] = c
	}
	attempt := c.attempts
	c.attempts++
	c.last = time.Now()
	return attempt
}
