package augment

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

type testLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *testLogger) Logf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func TestUpsertAndLookup(t *testing.T) {
	store := NewStore(t.TempDir())

	if err := store.Upsert("weatherServer.getAlerts", "Use two-letter state codes."); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	a, ok := store.Lookup("weatherServer", "getAlerts")
	if !ok {
		t.Fatal("Lookup: not found")
	}
	if a.Body != "Use two-letter state codes." {
		t.Errorf("Body = %q", a.Body)
	}
	if a.Key() != "weatherServer.getAlerts" {
		t.Errorf("Key = %q", a.Key())
	}
}

func TestUpsert_ReplacesInPlace(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	if err := store.Upsert("weatherServer.getAlerts", "first body"); err != nil {
		t.Fatal(err)
	}
	if err := store.Upsert("weatherServer.getForecast", "forecast body"); err != nil {
		t.Fatal(err)
	}
	if err := store.Upsert("weatherServer.getAlerts", "second body"); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "weatherServer.md"))
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)

	if got := strings.Count(content, "# weatherServer.getAlerts"); got != 1 {
		t.Errorf("expected exactly 1 getAlerts section, found %d:\n%s", got, content)
	}
	if strings.Contains(content, "first body") {
		t.Errorf("old body still present:\n%s", content)
	}
	if !strings.Contains(content, "second body") {
		t.Errorf("new body missing:\n%s", content)
	}
	if !strings.Contains(content, "forecast body") {
		t.Errorf("unrelated section lost:\n%s", content)
	}

	// Replacement must not disturb section order: getAlerts was written
	// first and stays first.
	if strings.Index(content, "getAlerts") > strings.Index(content, "getForecast") {
		t.Errorf("section order changed:\n%s", content)
	}
}

func TestUpsert_IdempotentAcrossRepeats(t *testing.T) {
	store := NewStore(t.TempDir())
	for i := 0; i < 5; i++ {
		if err := store.Upsert("geoServer.geocode", "look up a place"); err != nil {
			t.Fatal(err)
		}
	}
	loaded := store.Load()
	if len(loaded) != 1 {
		t.Fatalf("expected 1 fragment, got %d", len(loaded))
	}
}

func TestUpsert_InvalidKey(t *testing.T) {
	store := NewStore(t.TempDir())
	if err := store.Upsert("notakey", "body"); err == nil {
		t.Fatal("expected error for key without a dot")
	}
}

func TestLoad_SkipsMismatchedSections(t *testing.T) {
	dir := t.TempDir()
	content := "# weatherServer.getAlerts\n\ngood\n\n# otherServer.geocode\n\nwrong file\n\n# nodot\n\nmalformed\n"
	if err := os.WriteFile(filepath.Join(dir, "weatherServer.md"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	logger := &testLogger{}
	store := NewStore(dir, WithLogger(logger))
	loaded := store.Load()

	if len(loaded) != 1 {
		t.Fatalf("expected 1 fragment, got %d: %v", len(loaded), loaded)
	}
	if _, ok := loaded["weatherServer.getAlerts"]; !ok {
		t.Error("valid section missing")
	}
	if len(logger.lines) != 2 {
		t.Errorf("expected 2 warnings, got %v", logger.lines)
	}
}

func TestLoad_MissingDirIsEmpty(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nope"))
	if got := store.Load(); len(got) != 0 {
		t.Errorf("expected empty store, got %v", got)
	}
}

func TestSplitSections_IgnoresFencedHeadings(t *testing.T) {
	content := "# weatherServer.getAlerts\n\n```\n# not a heading\n```\n\nstill first section\n"
	secs := splitSections(content)
	if len(secs) != 1 {
		t.Fatalf("expected 1 section, got %d", len(secs))
	}
	if !strings.Contains(secs[0].body(), "still first section") {
		t.Errorf("fenced heading split the section: %q", secs[0].body())
	}
	if !strings.Contains(secs[0].body(), "# not a heading") {
		t.Errorf("fenced content lost: %q", secs[0].body())
	}
}

func TestSplitSections_MixedFenceMarkers(t *testing.T) {
	// A ~~~ line inside a ``` block is content, not a closing fence; the
	// heading after it must stay fenced.
	content := "# weatherServer.getAlerts\n\n```\n~~~\n# weatherServer.phantom\n~~~\n```\n\ntail\n"
	secs := splitSections(content)
	if len(secs) != 1 {
		t.Fatalf("expected 1 section, got %d", len(secs))
	}
	if secs[0].key != "weatherServer.getAlerts" {
		t.Errorf("key = %q", secs[0].key)
	}
	if !strings.Contains(secs[0].body(), "# weatherServer.phantom") {
		t.Errorf("fenced heading escaped the block: %q", secs[0].body())
	}
	if !strings.Contains(secs[0].body(), "tail") {
		t.Errorf("content after the block lost: %q", secs[0].body())
	}
}

func TestUpsert_ConcurrentSameFile(t *testing.T) {
	store := NewStore(t.TempDir())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("geoServer.tool%d", n)
			if err := store.Upsert(key, "body"); err != nil {
				t.Errorf("Upsert %s: %v", key, err)
			}
		}(i)
	}
	wg.Wait()

	loaded := store.Load()
	if len(loaded) != 8 {
		t.Errorf("expected 8 fragments after concurrent upserts, got %d", len(loaded))
	}
}
