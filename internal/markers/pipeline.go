// Package markers converts externally-sourced review comments into
// memory locations inside the host's open session: session validation,
// timecode conversion, conflict handling and batched creation with
// progress reporting.
package markers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/vietddude/markerbridge/internal/core/domain"
	"github.com/vietddude/markerbridge/internal/core/timecode"
	"github.com/vietddude/markerbridge/internal/hostrpc"
	"github.com/vietddude/markerbridge/internal/metrics"
	"github.com/vietddude/markerbridge/internal/recovery"
)

// ErrImportRunning is returned when CreateMarkers is called while a run
// is already in progress.
var ErrImportRunning = errors.New("marker import already running")

// HostClient is the slice of the connection manager the pipeline needs.
type HostClient interface {
	Connect(ctx context.Context) error
	SessionInfo(ctx context.Context) (*domain.Session, error)
	MemoryLocations(ctx context.Context, filter string) ([]domain.ExistingMarker, error)
	CreateMemoryLocation(ctx context.Context, req hostrpc.CreateMemoryLocationRequest) (int, error)
}

// DedupeStore remembers which comment ids already produced markers so a
// re-run skips them. Optional.
type DedupeStore interface {
	Seen(ctx context.Context, session, commentID string) (bool, error)
	MarkImported(ctx context.Context, session, commentID string) error
}

// ProgressFunc receives phase/percentage/status updates. Optional.
type ProgressFunc func(phase string, percent int, status string)

// Options parameterizes one import run.
type Options struct {
	// ExpectedFrameRate fails validation when the session differs by
	// more than one fps. Zero disables the check.
	ExpectedFrameRate float64

	// StartOffset, when set, is added to every candidate timecode with
	// field-wise carry at the session's frame boundary.
	StartOffset string

	// Strategy resolves collisions with existing markers.
	Strategy ConflictStrategy

	BatchSize     int
	BatchDelay    time.Duration
	CreateRetries int
}

func (o *Options) applyDefaults() {
	if o.BatchSize <= 0 {
		o.BatchSize = 10
	}
	if o.BatchDelay < 0 {
		o.BatchDelay = 0
	} else if o.BatchDelay == 0 {
		o.BatchDelay = 500 * time.Millisecond
	}
	if o.CreateRetries <= 0 {
		o.CreateRetries = 3
	}
	if o.Strategy == "" {
		o.Strategy = ConflictSkip
	}
}

// ItemStatus is the per-comment outcome.
type ItemStatus string

const (
	StatusCreated ItemStatus = "created"
	StatusSkipped ItemStatus = "skipped"
	StatusFailed  ItemStatus = "failed"
)

// ItemResult is the outcome for one input comment.
type ItemResult struct {
	Index    int        `json:"index"`
	Name     string     `json:"name,omitempty"`
	Timecode string     `json:"timecode,omitempty"`
	Status   ItemStatus `json:"status"`
	Reason   string     `json:"reason,omitempty"`
	Location int        `json:"location,omitempty"`
}

// Result is the final accounting of a run. Per-item failures are
// recorded here, never raised.
type Result struct {
	SessionName string       `json:"session_name"`
	Created     int          `json:"created"`
	Skipped     int          `json:"skipped"`
	Failed      int          `json:"failed"`
	Results     []ItemResult `json:"results"`
}

// Pipeline orchestrates one import run at a time.
type Pipeline struct {
	host     HostClient
	engine   *recovery.Engine
	dedupe   DedupeStore
	prompt   ConflictPrompt
	progress ProgressFunc
	log      *slog.Logger

	running atomic.Bool
}

// NewPipeline wires a pipeline. dedupe, prompt and progress may be nil.
func NewPipeline(host HostClient, engine *recovery.Engine, dedupe DedupeStore, prompt ConflictPrompt, progress ProgressFunc) *Pipeline {
	return &Pipeline{
		host:     host,
		engine:   engine,
		dedupe:   dedupe,
		prompt:   prompt,
		progress: progress,
		log:      slog.Default(),
	}
}

func (p *Pipeline) report(phase string, percent int, status string) {
	if p.progress != nil {
		p.progress(phase, percent, status)
	}
	p.log.Debug("import progress", "phase", phase, "percent", percent, "status", status)
}

// CreateMarkers runs the full import. It fails fast only when session
// validation fails outright; every per-item failure is folded into the
// result. Re-entry while a run is active is rejected.
func (p *Pipeline) CreateMarkers(ctx context.Context, comments []domain.Comment, opts Options) (*Result, error) {
	if !p.running.CompareAndSwap(false, true) {
		return nil, ErrImportRunning
	}
	defer p.running.Store(false)

	opts.applyDefaults()

	result := &Result{Results: make([]ItemResult, len(comments))}
	for i := range result.Results {
		result.Results[i].Index = i
		result.Results[i].Timecode = comments[i].Timecode
	}

	// Stage 1: session validation.
	p.report("validate_session", 5, "validating session compatibility")
	var session *domain.Session
	err := p.withRecovery(ctx, "get_session_info", func() error {
		s, err := p.host.SessionInfo(ctx)
		if err == nil {
			session = s
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("session validation: %w", err)
	}
	result.SessionName = session.Name

	warnings, err := ValidateSession(session, opts.ExpectedFrameRate)
	if err != nil {
		return nil, fmt.Errorf("session validation: %w", err)
	}
	for _, w := range warnings {
		p.log.Warn("session validation warning", "warning", w)
	}

	// Stage 2: fetch existing markers.
	p.report("fetch_existing", 15, "fetching existing markers")
	var existing []domain.ExistingMarker
	err = p.withRecovery(ctx, "get_memory_locations", func() error {
		ex, err := p.host.MemoryLocations(ctx, "")
		if err == nil {
			existing = ex
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch existing markers: %w", err)
	}

	// Stage 3: conflict detector at the session's frame rate.
	p.report("conflict_init", 25, "initializing conflict detection")
	detector := NewDetector(session.TimecodeRate)

	// Stage 4: timecode conversion.
	p.report("convert_timecodes", 40, "converting timecodes")
	candidates, err := p.buildCandidates(ctx, comments, session, opts, result)
	if err != nil {
		return nil, err
	}

	// Stage 5: conflict detection and resolution.
	p.report("resolve_conflicts", 55, "resolving conflicts")
	candidates = p.resolveConflicts(ctx, detector, candidates, existing, opts.Strategy, result)

	// Stage 6: batched creation.
	p.report("create_markers", 60, fmt.Sprintf("creating %d markers", len(candidates)))
	p.createBatches(ctx, session, candidates, opts, result)

	for _, r := range result.Results {
		switch r.Status {
		case StatusCreated:
			result.Created++
		case StatusFailed:
			result.Failed++
		default:
			result.Skipped++
		}
	}

	p.report("done", 100, fmt.Sprintf("created %d, skipped %d, failed %d",
		result.Created, result.Skipped, result.Failed))
	return result, nil
}

// buildCandidates validates and converts each comment's timecode,
// recording skips for invalid or already-imported items.
func (p *Pipeline) buildCandidates(ctx context.Context, comments []domain.Comment, session *domain.Session, opts Options, result *Result) ([]domain.Marker, error) {
	rate := session.TimecodeRate
	fps := rate.FramesPerSecond()

	var offset *timecode.Timecode
	if opts.StartOffset != "" {
		t, err := timecode.Parse(opts.StartOffset, fps)
		if err != nil {
			return nil, fmt.Errorf("session start offset: %w", err)
		}
		offset = &t
	}

	var candidates []domain.Marker
	for i := range comments {
		c := comments[i]
		res := &result.Results[i]

		if p.dedupe != nil && c.ID != "" {
			seen, err := p.dedupe.Seen(ctx, session.Name, c.ID)
			if err != nil {
				p.log.Warn("dedupe lookup failed", "comment_id", c.ID, "error", err)
			} else if seen {
				res.Status = StatusSkipped
				res.Reason = "already imported"
				metrics.MarkersSkipped.WithLabelValues("duplicate").Inc()
				continue
			}
		}

		t, err := timecode.Parse(c.Timecode, fps)
		if err != nil {
			rec := p.engine.HandleError(ctx, err, recovery.Context{
				Operation:          "convert_timecode",
				ValidatingTimecode: true,
			})
			res.Status = StatusSkipped
			res.Reason = rec.Reason
			metrics.MarkersSkipped.WithLabelValues("invalid_timecode").Inc()
			continue
		}

		if offset != nil {
			t = timecode.Add(t, *offset, fps)
		}
		t = t.DropFrameCorrect(rate)

		m := domain.Marker{
			Name:          markerName(c),
			Timecode:      t.String(),
			CommentText:   c.Text,
			Color:         ColorFor(c),
			IsReply:       c.IsReply,
			OriginalIndex: i,
			Source:        &comments[i],
		}
		res.Name = m.Name
		res.Timecode = m.Timecode
		candidates = append(candidates, m)
	}

	return candidates, nil
}

// resolveConflicts folds the detector's skip/modify decisions back into
// the candidate list: skipped indices are removed, modified markers
// replace the originals.
func (p *Pipeline) resolveConflicts(ctx context.Context, detector *Detector, candidates []domain.Marker, existing []domain.ExistingMarker, strategy ConflictStrategy, result *Result) []domain.Marker {
	conflicts := detector.Detect(candidates, existing)
	if len(conflicts) == 0 {
		return candidates
	}

	res, err := detector.Resolve(ctx, conflicts, strategy, p.prompt)
	if err != nil {
		// A failed prompt degrades to skipping the conflicting items.
		p.log.Warn("conflict prompt failed, skipping conflicting markers", "error", err)
		for _, c := range conflicts {
			res.skip[c.CandidateIndex] = true
		}
	}

	byCandidate := make(map[int]Conflict, len(conflicts))
	for _, c := range conflicts {
		byCandidate[c.CandidateIndex] = c
	}

	kept := candidates[:0]
	for i, cand := range candidates {
		if res.skip[i] {
			r := &result.Results[cand.OriginalIndex]
			r.Status = StatusSkipped
			r.Reason = fmt.Sprintf("conflicts with existing marker %q at %s",
				byCandidate[i].Existing.Name, byCandidate[i].Existing.Start)
			metrics.MarkersSkipped.WithLabelValues("conflict").Inc()
			continue
		}
		if shifted, ok := res.modified[i]; ok {
			cand.Timecode = shifted
			result.Results[cand.OriginalIndex].Timecode = shifted
		}
		kept = append(kept, cand)
	}

	return kept
}

// createBatches processes candidates in fixed-size batches with an
// inter-batch pause, negotiating failures through the recovery engine.
func (p *Pipeline) createBatches(ctx context.Context, session *domain.Session, candidates []domain.Marker, opts Options, result *Result) {
	total := len(candidates)
	if total == 0 {
		return
	}

	aborted := false
	abortReason := ""

	for start := 0; start < total; start += opts.BatchSize {
		if aborted {
			break
		}

		end := start + opts.BatchSize
		if end > total {
			end = total
		}
		chunk := candidates[start:end]
		batch := recovery.NewBatchOperation(len(chunk))

		for bi, cand := range chunk {
			loc, err := p.createOne(ctx, cand, opts.CreateRetries)
			r := &result.Results[cand.OriginalIndex]
			if err == nil {
				r.Status = StatusCreated
				r.Location = loc
				metrics.MarkersCreated.Inc()
				p.markImported(ctx, session.Name, cand)
				continue
			}
			if errors.Is(err, recovery.ErrCircuitOpen) {
				// Circuit open aborts the remaining batch immediately.
				aborted = true
				abortReason = err.Error()
				break
			}
			p.engine.HandleError(ctx, err, recovery.Context{
				Operation: "create_memory_location",
				Batch:     batch,
				ItemIndex: bi,
			})
			r.Status = StatusFailed
			r.Reason = err.Error()
			metrics.MarkersFailed.Inc()
		}

		if !aborted {
			if p.negotiateBatch(ctx, session, chunk, batch, opts, result) {
				aborted = true
				abortReason = "import aborted"
			}
		}

		done := end
		percent := 60 + int(float64(done)/float64(total)*35)
		p.report("create_markers", percent, fmt.Sprintf("processed %d of %d", done, total))

		if end < total && !aborted {
			select {
			case <-ctx.Done():
				aborted = true
				abortReason = "import cancelled"
			case <-time.After(opts.BatchDelay):
			}
		}
	}

	if aborted {
		for i := range result.Results {
			if result.Results[i].Status == "" {
				result.Results[i].Status = StatusFailed
				result.Results[i].Reason = abortReason
				metrics.MarkersFailed.Inc()
			}
		}
	}
}

// negotiateBatch runs the end-of-batch retry negotiation and applies a
// user-granted retry pass over the failed items. It reports whether the
// user aborted the run.
func (p *Pipeline) negotiateBatch(ctx context.Context, session *domain.Session, chunk []domain.Marker, batch *recovery.BatchOperation, opts Options, result *Result) bool {
	for {
		decision := p.engine.FinishBatch(ctx, batch)
		switch decision.Action {
		case recovery.ActionRetry:
			failures := batch.Failures()
			batch.ClearFailures()
			for _, f := range failures {
				cand := chunk[f.Index]
				loc, err := p.createOne(ctx, cand, opts.CreateRetries)
				r := &result.Results[cand.OriginalIndex]
				if err == nil {
					r.Status = StatusCreated
					r.Reason = ""
					r.Location = loc
					metrics.MarkersCreated.Inc()
					p.markImported(ctx, session.Name, cand)
					continue
				}
				batch.RecordFailure(f.Index, err)
				r.Status = StatusFailed
				r.Reason = err.Error()
			}
			continue
		case recovery.ActionAbort:
			for _, f := range batch.Failures() {
				r := &result.Results[chunk[f.Index].OriginalIndex]
				r.Status = StatusFailed
				if r.Reason == "" {
					r.Reason = decision.Reason
				}
			}
			return true
		default:
			return false
		}
	}
}

// createOne attempts a single marker creation, driving transient
// failures through the recovery engine up to the per-marker budget.
func (p *Pipeline) createOne(ctx context.Context, m domain.Marker, attempts int) (int, error) {
	req := hostrpc.CreateMemoryLocationRequest{
		Name:       m.Name,
		StartTime:  m.Timecode,
		Comments:   m.CommentText,
		ColorIndex: m.Color.Index(),
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := p.engine.Breaker().Allow(); err != nil {
			return 0, err
		}

		loc, err := p.host.CreateMemoryLocation(ctx, req)
		if err == nil {
			p.engine.RecordSuccess("create_memory_location")
			return loc, nil
		}
		lastErr = err

		res := p.engine.HandleError(ctx, err, recovery.Context{Operation: "create_memory_location"})
		switch res.Action {
		case recovery.ActionRetry:
			continue
		case recovery.ActionReconnect:
			if cerr := p.host.Connect(ctx); cerr != nil {
				return 0, fmt.Errorf("reconnect during create: %w", cerr)
			}
			continue
		case recovery.ActionCircuitOpen:
			return 0, fmt.Errorf("%w: %s", recovery.ErrCircuitOpen, res.Reason)
		case recovery.ActionSkip:
			return 0, lastErr
		default:
			return 0, lastErr
		}
	}
	return 0, lastErr
}

// withRecovery drives one remote operation through the engine until it
// succeeds or the engine gives a terminal answer.
func (p *Pipeline) withRecovery(ctx context.Context, op string, fn func() error) error {
	const maxRounds = 10

	for round := 0; round < maxRounds; round++ {
		if err := p.engine.Breaker().Allow(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			p.engine.RecordSuccess(op)
			return nil
		}

		res := p.engine.HandleError(ctx, err, recovery.Context{Operation: op})
		switch res.Action {
		case recovery.ActionRetry:
			continue
		case recovery.ActionReconnect:
			if cerr := p.host.Connect(ctx); cerr != nil {
				return fmt.Errorf("reconnect for %s: %w", op, cerr)
			}
			continue
		case recovery.ActionCircuitOpen:
			return fmt.Errorf("%w: %s", recovery.ErrCircuitOpen, res.Reason)
		default:
			return fmt.Errorf("%s: %s", op, res.Reason)
		}
	}
	return fmt.Errorf("%s: recovery rounds exhausted", op)
}

func (p *Pipeline) markImported(ctx context.Context, sessionName string, m domain.Marker) {
	if p.dedupe == nil || m.Source == nil || m.Source.ID == "" {
		return
	}
	if err := p.dedupe.MarkImported(ctx, sessionName, m.Source.ID); err != nil {
		p.log.Warn("dedupe mark failed", "comment_id", m.Source.ID, "error", err)
	}
}

