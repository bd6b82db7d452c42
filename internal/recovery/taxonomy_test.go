package recovery

import (
	"errors"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		ctx    Context
		expect Category
	}{
		{"timeout", errors.New("request timeout"), Context{}, CategoryNetwork},
		{"refused", errors.New("connection refused"), Context{}, CategoryNetwork},
		{"reset", errors.New("connection reset by peer"), Context{}, CategoryNetwork},
		{"heartbeat", errors.New("heartbeat missed"), Context{}, CategoryNetwork},
		{"session locked", errors.New("session is locked"), Context{}, CategorySession},
		{"session gone", errors.New("no session open"), Context{}, CategorySession},
		{"bad timecode", errors.New("timecode field out of range"), Context{}, CategoryValidation},
		{"invalid", errors.New("invalid marker name"), Context{}, CategoryValidation},
		{"host down", errors.New("host application not running"), Context{}, CategorySystem},
		{"unclassified", errors.New("something odd"), Context{}, CategoryUser},
		{"grpc unavailable", status.Error(codes.Unavailable, "down"), Context{}, CategoryNetwork},
		{"grpc deadline", status.Error(codes.DeadlineExceeded, "slow"), Context{}, CategoryNetwork},
		{"grpc unauthenticated", status.Error(codes.Unauthenticated, "bad token"), Context{}, CategorySession},
		{"grpc internal", status.Error(codes.Internal, "boom"), Context{}, CategorySystem},
	}

	for _, tt := range tests {
		if got := Classify(tt.err, tt.ctx); got != tt.expect {
			t.Errorf("%s: Classify = %v, want %v", tt.name, got, tt.expect)
		}
	}
}

func TestClassify_ContextFlagsWin(t *testing.T) {
	// A network-looking message raised during timecode validation is
	// still a validation failure.
	err := errors.New("timeout while checking value")
	if got := Classify(err, Context{ValidatingTimecode: true}); got != CategoryValidation {
		t.Errorf("validation context ignored: %v", got)
	}

	batch := NewBatchOperation(3)
	if got := Classify(err, Context{Batch: batch}); got != CategoryBatch {
		t.Errorf("batch context ignored: %v", got)
	}
}

func TestClassify_ClassifiedErrorPassthrough(t *testing.T) {
	err := &ClassifiedError{Category: CategorySession, Operation: "create", Err: errors.New("x")}
	if got := Classify(err, Context{}); got != CategorySession {
		t.Errorf("Classify = %v", got)
	}
}

func TestSessionLocked(t *testing.T) {
	if !SessionLocked(errors.New("session is locked by another client")) {
		t.Error("locked not detected")
	}
	if SessionLocked(errors.New("no session open")) {
		t.Error("false positive")
	}
}
