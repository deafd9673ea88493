package fallback_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"docqa/src/fallback"
)

func acceptAll(string) bool { return true }

func TestFirstReturnsFirstSuccess(t *testing.T) {
	calls := []string{}
	strategies := []fallback.Strategy[string, string]{
		{
			Name: "a",
			Run: func(ctx context.Context, in string) (string, error) {
				calls = append(calls, "a")
				return "", errors.New("a failed")
			},
		},
		{
			Name: "b",
			Run: func(ctx context.Context, in string) (string, error) {
				calls = append(calls, "b")
				return "from b", nil
			},
		},
		{
			Name: "c",
			Run: func(ctx context.Context, in string) (string, error) {
				calls = append(calls, "c")
				return "from c", nil
			},
		},
	}

	out, name, err := fallback.First(context.Background(), "in", acceptAll, strategies)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "from b" {
		t.Errorf("expected output from b, got %q", out)
	}
	if name != "b" {
		t.Errorf("expected winning strategy b, got %q", name)
	}
	if len(calls) != 2 {
		t.Errorf("expected strategies after the winner to be skipped, calls: %v", calls)
	}
}

func TestFirstRejectedOutputContinues(t *testing.T) {
	strategies := []fallback.Strategy[string, string]{
		{
			Name: "empty",
			Run: func(ctx context.Context, in string) (string, error) {
				return "   ", nil
			},
		},
		{
			Name: "real",
			Run: func(ctx context.Context, in string) (string, error) {
				return "text", nil
			},
		},
	}

	nonBlank := func(s string) bool { return strings.TrimSpace(s) != "" }
	out, name, err := fallback.First(context.Background(), "in", nonBlank, strategies)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "text" || name != "real" {
		t.Errorf("expected rejected output to fall through, got %q from %q", out, name)
	}
}

func TestFirstAggregatesErrors(t *testing.T) {
	errA := errors.New("broken pipe")
	strategies := []fallback.Strategy[string, string]{
		{
			Name: "a",
			Run: func(ctx context.Context, in string) (string, error) {
				return "", errA
			},
		},
		{
			Name: "b",
			Run: func(ctx context.Context, in string) (string, error) {
				return "", nil
			},
		},
	}

	nonBlank := func(s string) bool { return s != "" }
	_, name, err := fallback.First(context.Background(), "in", nonBlank, strategies)
	if err == nil {
		t.Fatal("expected error when every strategy fails")
	}
	if name != "" {
		t.Errorf("expected empty strategy name on total failure, got %q", name)
	}
	if !errors.Is(err, errA) {
		t.Errorf("expected aggregated error to wrap the strategy error, got %v", err)
	}
	if !strings.Contains(err.Error(), "b: produced no usable output") {
		t.Errorf("expected rejection to be reported per strategy, got %v", err)
	}
}

func TestFirstStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	strategies := []fallback.Strategy[string, string]{
		{
			Name: "never",
			Run: func(ctx context.Context, in string) (string, error) {
				called = true
				return "out", nil
			},
		},
	}

	_, _, err := fallback.First(ctx, "in", acceptAll, strategies)
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if called {
		t.Error("expected no strategy to run after cancellation")
	}
}
