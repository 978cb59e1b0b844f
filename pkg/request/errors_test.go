package request

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorMatchesSentinelByKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", newError(KindCanceled, "id-1", 0, context.Canceled))

	if !errors.Is(err, ErrCanceled) {
		t.Fatalf("expected ErrCanceled match")
	}
	if errors.Is(err, ErrTransport) || errors.Is(err, ErrBusiness) || errors.Is(err, ErrDecode) {
		t.Fatalf("matched a sentinel of another kind")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("cause should stay reachable through Unwrap")
	}
	if KindOf(err) != KindCanceled {
		t.Fatalf("KindOf got %s", KindOf(err))
	}
}

func TestErrorMessage(t *testing.T) {
	msg := newError(KindTransport, "abc", 503, errors.New("boom")).Error()
	for _, want := range []string{"[abc]", "transport", "status 503", "boom"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message %q missing %q", msg, want)
		}
	}
}

func TestKindOfPlainError(t *testing.T) {
	if KindOf(errors.New("plain")) != 0 {
		t.Fatalf("plain errors carry no kind")
	}
	if Kind(42).String() != "unknown" {
		t.Fatalf("unexpected kind name")
	}
}
