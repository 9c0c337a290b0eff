package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mcr5fh/nova-voice/pkg/retry"
)

func TestDoRetriesThenSucceeds(t *testing.T) {
	ctx := context.Background()
	p := retry.Policy{MaxAttempts: 3, BaseDelay: 20 * time.Millisecond}

	calls := 0
	start := time.Now()
	err := p.Do(ctx, retry.CodeConversationFailed, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection reset by peer")
		}
		return nil
	})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	// Waits: base after attempt 1, 2*base after attempt 2.
	if want := 60 * time.Millisecond; elapsed < want {
		t.Fatalf("elapsed = %v, want >= %v", elapsed, want)
	}
}

func TestDoCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := retry.Policy{MaxAttempts: 5, BaseDelay: time.Hour}

	calls := 0
	start := time.Now()
	err := p.Do(ctx, retry.CodeTranscriptionFailed, func(context.Context) error {
		calls++
		// Cancel before Do enters the backoff wait.
		cancel()
		return errors.New("connection reset by peer")
	})
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("cancelled Do waited %v instead of returning", elapsed)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	var typed *retry.Error
	if !errors.As(err, &typed) {
		t.Fatalf("err = %v, want classified error", err)
	}
	if typed.Code != retry.CodeTranscriptionFailed || !typed.Retryable {
		t.Fatalf("err = %+v, want retryable TRANSCRIPTION_FAILED", typed)
	}
}

func TestDoNonRetryableAbortsImmediately(t *testing.T) {
	ctx := context.Background()
	p := retry.Policy{MaxAttempts: 5, BaseDelay: time.Hour}

	calls := 0
	start := time.Now()
	err := p.Do(ctx, retry.CodeConversationFailed, func(context.Context) error {
		calls++
		return retry.New(retry.CodeSessionNotFound, "no such session")
	})
	if time.Since(start) > time.Second {
		t.Fatal("non-retryable failure must not wait")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	var typed *retry.Error
	if !errors.As(err, &typed) || typed.Code != retry.CodeSessionNotFound {
		t.Fatalf("err = %v, want SESSION_NOT_FOUND", err)
	}
}

func TestDoExhaustionReturnsLastError(t *testing.T) {
	ctx := context.Background()
	p := retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond}

	calls := 0
	err := p.Do(ctx, retry.CodeTranscriptionFailed, func(context.Context) error {
		calls++
		return errors.New("request timed out")
	})
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
	var typed *retry.Error
	if !errors.As(err, &typed) {
		t.Fatalf("err = %v, want *retry.Error", err)
	}
	if typed.Code != retry.CodeTranscriptionFailed || !typed.Retryable {
		t.Fatalf("got %+v, want retryable TRANSCRIPTION_FAILED", typed)
	}
}

func TestClassifyPassesTypedThrough(t *testing.T) {
	orig := retry.New(retry.CodeSessionLocked, "held by another connection")
	got := retry.Classify(orig, retry.CodeInternal)
	if got != orig {
		t.Fatalf("typed error must pass through unchanged, got %+v", got)
	}
}

func TestClassifyTransientMarkers(t *testing.T) {
	cases := []struct {
		err       error
		retryable bool
	}{
		{errors.New("dial tcp: connection refused"), true},
		{errors.New("429 too many requests"), true},
		{errors.New("rate limit exceeded"), true},
		{context.DeadlineExceeded, true},
		{errors.New("invalid api key"), false},
		{errors.New("model not found"), false},
	}
	for _, tc := range cases {
		got := retry.Classify(tc.err, retry.CodeConnectionError)
		if got.Retryable != tc.retryable {
			t.Errorf("Classify(%q).Retryable = %v, want %v", tc.err, got.Retryable, tc.retryable)
		}
		if got.Code != retry.CodeConnectionError {
			t.Errorf("Classify(%q).Code = %s, want CONNECTION_ERROR", tc.err, got.Code)
		}
	}
}

func TestClassifyFallbackMode(t *testing.T) {
	got := retry.Classify(errors.New("timeout"), retry.CodeSynthesisFailed)
	if got.FallbackMode != "text-only" {
		t.Fatalf("FallbackMode = %q, want text-only", got.FallbackMode)
	}
	got = retry.Classify(errors.New("timeout"), retry.CodeTranscriptionFailed)
	if got.FallbackMode != "text-input" {
		t.Fatalf("FallbackMode = %q, want text-input", got.FallbackMode)
	}
}
