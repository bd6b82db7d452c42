package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/vietddude/markerbridge/internal/markers"
	"github.com/vietddude/markerbridge/internal/recovery"
)

// terminalPrompts answers the engine's and pipeline's interactive
// questions over stdin/stdout.
type terminalPrompts struct {
	in  *bufio.Reader
	out io.Writer
}

func newTerminalPrompts(in io.Reader, out io.Writer) *terminalPrompts {
	return &terminalPrompts{in: bufio.NewReader(in), out: out}
}

func (t *terminalPrompts) ask(question string) (string, error) {
	fmt.Fprint(t.out, question)
	line, err := t.in.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(line)), nil
}

func (t *terminalPrompts) PromptError(ctx context.Context, rec recovery.ErrorRecord, guidance string) (recovery.PromptChoice, error) {
	fmt.Fprintf(t.out, "\nOperation %q failed: %s\n", rec.Operation, rec.Summary)
	if guidance != "" {
		fmt.Fprintf(t.out, "%s\n", guidance)
	}
	for {
		answer, err := t.ask("[r]etry, [s]kip, [w]ait, [a]bort? ")
		if err != nil {
			return recovery.ChoiceAbort, err
		}
		switch answer {
		case "r", "retry":
			return recovery.ChoiceRetry, nil
		case "s", "skip":
			return recovery.ChoiceSkip, nil
		case "w", "wait":
			return recovery.ChoiceWait, nil
		case "a", "abort":
			return recovery.ChoiceAbort, nil
		}
	}
}

func (t *terminalPrompts) PromptBatchRetry(ctx context.Context, batch *recovery.BatchOperation) (recovery.BatchChoice, error) {
	fmt.Fprintf(t.out, "\n%d of %d markers in this batch failed.\n", batch.FailureCount(), batch.Total)
	for {
		answer, err := t.ask("[r]etry failed, [s]kip failed, [a]bort import? ")
		if err != nil {
			return recovery.BatchAbort, err
		}
		switch answer {
		case "r", "retry":
			return recovery.BatchRetryFailed, nil
		case "s", "skip":
			return recovery.BatchSkipFailed, nil
		case "a", "abort":
			return recovery.BatchAbort, nil
		}
	}
}

func (t *terminalPrompts) PromptConflict(ctx context.Context, c markers.Conflict) (markers.ConflictDecision, error) {
	fmt.Fprintf(t.out, "\nMarker %q at %s collides with existing marker %q at %s.\n",
		c.Candidate.Name, c.Candidate.Timecode, c.Existing.Name, c.Existing.Start)
	for {
		answer, err := t.ask("[s]kip, [o]ffset by one second, [c]reate anyway? ")
		if err != nil {
			return markers.DecisionSkip, err
		}
		switch answer {
		case "s", "skip":
			return markers.DecisionSkip, nil
		case "o", "offset":
			return markers.DecisionOffset, nil
		case "c", "create":
			return markers.DecisionCreate, nil
		}
	}
}
