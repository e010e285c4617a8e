package usbflags

import (
	"context"
	"errors"
	"io/fs"
	"testing"

	"enumguard/internal/deviceid"
	"enumguard/internal/logging"
)

func TestValueName(t *testing.T) {
	if got := ValueName("05A60A00"); got != "IgnoreHWSerNum05A60A00" {
		t.Fatalf("got %q", got)
	}
}

func TestSetIgnoreFlagWritesOnce(t *testing.T) {
	store := NewMemoryStore()
	marker := NewMarker(store, nil, logging.NewNop())

	ok, err := marker.SetIgnoreFlag(context.Background(), "AAAA1111")
	if err != nil || !ok {
		t.Fatalf("first write: ok=%v err=%v", ok, err)
	}
	if has, _ := store.HasFlag("IgnoreHWSerNumAAAA1111"); !has {
		t.Fatal("expected flag in store")
	}

	store.FailWrites(errors.New("must not rewrite"))
	ok, err = marker.SetIgnoreFlag(context.Background(), "AAAA1111")
	if err != nil || !ok {
		t.Fatalf("existing flag should be success: ok=%v err=%v", ok, err)
	}
}

func TestSetIgnoreFlagDeclined(t *testing.T) {
	store := NewMemoryStore()
	var asked string
	decline := func(_ context.Context, name string) (bool, error) {
		asked = name
		return false, nil
	}
	ok, err := NewMarker(store, decline, logging.NewNop()).SetIgnoreFlag(context.Background(), "BBBB2222")
	if err != nil || ok {
		t.Fatalf("declined write: ok=%v err=%v", ok, err)
	}
	if asked != "IgnoreHWSerNumBBBB2222" {
		t.Fatalf("confirmer asked about %q", asked)
	}
	if has, _ := store.HasFlag(asked); has {
		t.Fatal("declined flag must not be written")
	}
}

func TestSetIgnoreFlagPropagatesPermission(t *testing.T) {
	store := NewMemoryStore()
	store.FailWrites(fs.ErrPermission)
	_, err := NewMarker(store, AutoApprove, logging.NewNop()).SetIgnoreFlag(context.Background(), deviceid.ID("CCCC3333"))
	if !errors.Is(err, fs.ErrPermission) {
		t.Fatalf("expected permission error, got %v", err)
	}
}

func TestSetIgnoreFlagRejectsEmpty(t *testing.T) {
	if _, err := NewMarker(NewMemoryStore(), nil, nil).SetIgnoreFlag(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty identifier")
	}
}
