package privilege

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestWarnIfUnprivilegedMatchesElevated(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	got := WarnIfUnprivileged(logger)
	if got != Elevated() {
		t.Fatalf("WarnIfUnprivileged=%v Elevated=%v", got, Elevated())
	}
	warned := strings.Contains(buf.String(), "privilege_missing")
	if warned == got {
		t.Fatalf("warning emitted=%v for elevated=%v", warned, got)
	}
}
