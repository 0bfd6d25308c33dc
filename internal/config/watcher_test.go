package config

import (
	"errors"
	"testing"
	"time"
)

func waitReload(t *testing.T, w *Watcher) Reload {
	t.Helper()
	select {
	case r, ok := <-w.Reloads():
		if !ok {
			t.Fatal("Reloads closed")
		}
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("no reload within 5s")
	}
	return Reload{}
}

func TestWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "slotwire.toml", "[log]\nlevel = \"info\"\n")

	w, err := Watch(path, WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	writeFile(t, dir, "slotwire.toml", "[log]\nlevel = \"debug\"\n")
	r := waitReload(t, w)
	if r.Err != nil || r.Config.Log.Level != "debug" {
		t.Fatalf("reload = %+v", r)
	}

	writeFile(t, dir, "slotwire.toml", "[log]\nlevel = \"shout\"\n")
	r = waitReload(t, w)
	var ve *ValidationError
	if !errors.As(r.Err, &ve) || r.Config != nil {
		t.Errorf("invalid reload = %+v", r)
	}
}

func TestWatcherIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "slotwire.toml", "")

	w, err := Watch(path, WithDebounce(time.Millisecond))
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	writeFile(t, dir, "other.toml", "x = 1")
	select {
	case r := <-w.Reloads():
		t.Errorf("sibling change reloaded: %+v", r)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatcherClose(t *testing.T) {
	path := writeFile(t, t.TempDir(), "slotwire.toml", "")
	w, err := Watch(path)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := w.Close(); !errors.Is(err, ErrWatcherClosed) {
		t.Errorf("second Close = %v, want ErrWatcherClosed", err)
	}
	if _, ok := <-w.Reloads(); ok {
		t.Error("Reloads not closed")
	}
}
