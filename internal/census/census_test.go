package census

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"enumguard/internal/deviceid"
	"enumguard/internal/devicetree"
)

func TestScanAggregatesAndExcludesLocked(t *testing.T) {
	tree := devicetree.NewMemory(map[string]int{
		"VID_AAAA&PID_1111": 100,
		"vid_aaaa&pid_1111": 20,
		"VID_BBBB&PID_2222": 40,
		"VID_CCCC&PID_3333": 75,
		"ROOT_HUB30":        2,
	})
	locks := deviceid.NewSet("CCCC3333")

	snapshot, err := New(tree, locks, nil).Scan(context.Background(), 0)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := Snapshot{"AAAA1111": 120, "BBBB2222": 40, "ROOTHUB30": 2}
	if !reflect.DeepEqual(snapshot, want) {
		t.Fatalf("unexpected snapshot: got %v want %v", snapshot, want)
	}
}

func TestScanMinimumCountFilters(t *testing.T) {
	tree := devicetree.NewMemory(map[string]int{
		"VID_AAAA&PID_1111": 120,
		"VID_BBBB&PID_2222": 40,
		"VID_DDDD&PID_4444": 51,
	})
	snapshot, err := New(tree, nil, nil).Scan(context.Background(), 51)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := Snapshot{"AAAA1111": 120, "DDDD4444": 51}
	if !reflect.DeepEqual(snapshot, want) {
		t.Fatalf("unexpected snapshot: got %v want %v", snapshot, want)
	}
}

func TestScanSkipsUnreadableEntries(t *testing.T) {
	tree := devicetree.NewMemory(map[string]int{
		"VID_AAAA&PID_1111": 120,
		"VID_BBBB&PID_2222": 40,
	})
	tree.FailEntry("VID_BBBB&PID_2222", fs.ErrPermission)

	snapshot, err := New(tree, nil, nil).Scan(context.Background(), 0)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if _, ok := snapshot["BBBB2222"]; ok || snapshot["AAAA1111"] != 120 || len(snapshot) != 1 {
		t.Fatalf("unexpected snapshot %v", snapshot)
	}
}

func TestScanRootFailureIsFatal(t *testing.T) {
	tree := devicetree.NewMemory(map[string]int{"VID_AAAA&PID_1111": 120})
	tree.FailRoot(fs.ErrPermission)

	snapshot, err := New(tree, nil, nil).Scan(context.Background(), 0)
	if !errors.Is(err, devicetree.ErrRootUnavailable) {
		t.Fatalf("expected ErrRootUnavailable, got %v", err)
	}
	if snapshot != nil {
		t.Fatalf("expected no partial snapshot, got %v", snapshot)
	}
}

func TestSortedIsDescendingWithIdentifierTiebreak(t *testing.T) {
	snapshot := Snapshot{"CCCC3333": 50, "AAAA1111": 120, "BBBB2222": 50, "DDDD4444": 7}
	got := snapshot.Sorted()
	want := []Item{{"AAAA1111", 120}, {"BBBB2222", 50}, {"CCCC3333", 50}, {"DDDD4444", 7}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected order: got %v want %v", got, want)
	}
	for i := 0; i < 10; i++ {
		if !reflect.DeepEqual(snapshot.Sorted(), want) {
			t.Fatal("Sorted is not deterministic")
		}
	}
}

func TestScanWarnsAboutSuspectIdentifiers(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	tree := devicetree.NewMemory(map[string]int{
		"VID_AAAA&PID_1111": 10,
		"ROOT_HUB30":        2,
	})

	if _, err := New(tree, nil, logger).Scan(context.Background(), 0); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "ROOTHUB30") {
		t.Fatalf("expected warning for suspect identifier, got %q", out)
	}
	if strings.Contains(out, "AAAA1111") {
		t.Fatalf("well-formed identifier must not be reported, got %q", out)
	}
}
