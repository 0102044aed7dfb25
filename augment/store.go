package augment

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jonwraymond/codemode/model"
)

// ErrStore is returned for documentation writes that cannot proceed.
var ErrStore = errors.New("augmentation store error")

// Logger receives warnings about files or sections that were skipped.
type Logger interface {
	Logf(format string, args ...any)
}

// Augmentation is one documentation fragment for a (service, tool) pair.
type Augmentation struct {
	// Object and Method identify the tool in script-side naming.
	Object string
	Method string

	// Body is the fragment's markdown, without the heading line.
	Body string
}

// Key returns the scoped tool key the fragment belongs to.
func (a Augmentation) Key() string {
	return model.FormatToolKey(a.Object, a.Method)
}

// Store reads and writes augmentation files under a single directory.
// The directory is shared, process-wide state; writes to the same file
// are serialized by a per-file lock so concurrent upserts cannot
// interleave their read-modify-write cycles.
type Store struct {
	dir    string
	logger Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the warning logger. Nil means warnings are dropped.
func WithLogger(l Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore creates a store rooted at dir. The directory is created on
// first write, not here.
func NewStore(dir string, opts ...Option) *Store {
	s := &Store{dir: dir, locks: make(map[string]*sync.Mutex)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Load reads every augmentation file in the directory and returns the
// fragments indexed by tool key. Unreadable files and invalid sections
// are skipped with a warning. A missing directory is an empty store.
func (s *Store) Load() map[string]Augmentation {
	out := make(map[string]Augmentation)

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.warnf("augment: cannot read %s: %v", s.dir, err)
		}
		return out
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		object := strings.TrimSuffix(e.Name(), ".md")
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			s.warnf("augment: cannot read %s: %v", e.Name(), err)
			continue
		}
		for _, a := range s.parseFile(e.Name(), object, string(data)) {
			out[a.Key()] = a
		}
	}
	return out
}

// Lookup returns the fragment for one (object, method) pair, reading the
// owning file on every call so edits are picked up without a reload.
func (s *Store) Lookup(object, method string) (Augmentation, bool) {
	data, err := os.ReadFile(s.path(object))
	if err != nil {
		return Augmentation{}, false
	}
	for _, a := range s.parseFile(object+".md", object, string(data)) {
		if a.Method == method {
			return a, true
		}
	}
	return Augmentation{}, false
}

// Upsert writes the markdown body for the given tool key, replacing an
// existing section for the same key in place or appending a new section
// at the end of the owning file. Calling it repeatedly for the same key
// never accumulates duplicate sections.
func (s *Store) Upsert(key, body string) error {
	object, _, err := model.ParseToolKey(key)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}

	lock := s.fileLock(object)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}

	path := s.path(object)
	var existing string
	if data, err := os.ReadFile(path); err == nil {
		existing = string(data)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}

	updated := spliceSection(existing, key, body)
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	return nil
}

func (s *Store) path(object string) string {
	return filepath.Join(s.dir, object+".md")
}

func (s *Store) fileLock(object string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[object]
	if !ok {
		l = &sync.Mutex{}
		s.locks[object] = l
	}
	return l
}

func (s *Store) warnf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Logf(format, args...)
	}
}

// parseFile splits a file into fragments, validating each section
// heading against the file's service object.
func (s *Store) parseFile(filename, object, content string) []Augmentation {
	var out []Augmentation
	for _, sec := range splitSections(content) {
		headObject, method, err := model.ParseToolKey(sec.key)
		if err != nil {
			s.warnf("augment: %s: skipping section %q: heading is not serviceObject.method", filename, sec.key)
			continue
		}
		if headObject != object {
			s.warnf("augment: %s: skipping section %q: object does not match file", filename, sec.key)
			continue
		}
		out = append(out, Augmentation{Object: headObject, Method: method, Body: sec.body()})
	}
	return out
}

// section is a raw parsed section: the heading's key plus the line range
// it occupies, used both for indexing and for in-place replacement.
type section struct {
	key   string
	start int // heading line index
	end   int // exclusive; index of next heading or len(lines)
	lines []string
}

func (s section) body() string {
	return strings.TrimSpace(strings.Join(s.lines[s.start+1:s.end], "\n"))
}

// splitSections finds top-level "# " headings, ignoring heading-like
// lines inside fenced code blocks.
func splitSections(content string) []section {
	lines := strings.Split(content, "\n")
	var sections []section
	fence := "" // opening marker of the current fenced block, "" when outside
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case fence == "":
			if strings.HasPrefix(trimmed, "```") {
				fence = "```"
				continue
			}
			if strings.HasPrefix(trimmed, "~~~") {
				fence = "~~~"
				continue
			}
		default:
			// Only the marker that opened the block closes it; the other
			// marker is literal content inside the fence.
			if strings.HasPrefix(trimmed, fence) {
				fence = ""
			}
			continue
		}
		if strings.HasPrefix(line, "# ") {
			if n := len(sections); n > 0 {
				sections[n-1].end = i
			}
			sections = append(sections, section{
				key:   strings.TrimSpace(line[2:]),
				start: i,
				end:   len(lines),
				lines: lines,
			})
		}
	}
	return sections
}

// spliceSection replaces the section for key in content, or appends one,
// leaving every other line untouched.
func spliceSection(content, key, body string) string {
	block := []string{"# " + key, "", strings.TrimSpace(body)}

	lines := strings.Split(content, "\n")
	for _, sec := range splitSections(content) {
		if sec.key != key {
			continue
		}
		var out []string
		out = append(out, lines[:sec.start]...)
		out = append(out, block...)
		if sec.end < len(lines) {
			out = append(out, "")
			out = append(out, lines[sec.end:]...)
		} else {
			out = append(out, "")
		}
		return strings.Join(out, "\n")
	}

	// Append a new section, separated from existing content by one
	// blank line.
	var b strings.Builder
	trimmed := strings.TrimRight(content, "\n")
	if trimmed != "" {
		b.WriteString(trimmed)
		b.WriteString("\n\n")
	}
	b.WriteString(strings.Join(block, "\n"))
	b.WriteString("\n")
	return b.String()
}
