// Package results persists evaluation ResultSets as immutable JSON records,
// one file per run, and loads them back for comparison.
package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/wxhealth/riskbench/internal/models"
)

// filenameTimeLayout is an ISO-8601 timestamp with colons replaced so the
// name is valid on every filesystem.
const filenameTimeLayout = "2006-01-02T15-04-05Z"

// ErrRecordExists is returned when a save would overwrite a prior run.
var ErrRecordExists = errors.New("result record already exists")

// Store writes and reads result records under one directory.
type Store struct {
	dir   string
	clock clockwork.Clock
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock injects the clock used when a ResultSet carries no timestamp.
func WithClock(c clockwork.Clock) StoreOption {
	return func(s *Store) {
		s.clock = c
	}
}

// NewStore creates a store rooted at dir. The directory is created on first
// save.
func NewStore(dir string, opts ...StoreOption) *Store {
	s := &Store{
		dir:   dir,
		clock: clockwork.NewRealClock(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

// Save persists one ResultSet as an immutable record named
// <model>_<timestamp>.json and returns the file path. Records are created
// exclusively: a name collision fails with ErrRecordExists instead of
// overwriting a prior run.
func (s *Store) Save(set *models.ResultSet) (string, error) {
	if set == nil {
		return "", errors.New("nil result set")
	}
	if strings.TrimSpace(set.Model) == "" {
		return "", errors.New("result set has no model identity")
	}

	ts := set.Timestamp
	if ts.IsZero() {
		ts = s.clock.Now()
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating results directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s.json", SanitizeModelName(set.Model), ts.UTC().Format(filenameTimeLayout))
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrRecordExists, path)
		}
		return "", fmt.Errorf("creating result record: %w", err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(set); err != nil {
		f.Close()          //nolint:errcheck
		os.Remove(path)    //nolint:errcheck
		return "", fmt.Errorf("writing result record: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing result record: %w", err)
	}
	return path, nil
}

// Load reads one result record.
func Load(path string) (*models.ResultSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var set models.ResultSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if set.Model == "" || len(set.Predictions) == 0 {
		return nil, fmt.Errorf("%s is not a result record", path)
	}
	return &set, nil
}

// Loaded pairs a result set with the file it came from.
type Loaded struct {
	Path string
	Set  *models.ResultSet
}

// LoadGlob expands each argument as a glob pattern (a literal path matches
// itself) and loads every matching record. Files that fail to load are
// reported in skipped rather than aborting the whole comparison.
func LoadGlob(patterns ...string) (loaded []Loaded, skipped []string, err error) {
	var paths []string
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		matches, globErr := filepath.Glob(pattern)
		if globErr != nil {
			return nil, nil, fmt.Errorf("bad pattern %q: %w", pattern, globErr)
		}
		if len(matches) == 0 {
			// Keep the literal path so the miss is reported instead of
			// silently ignored.
			matches = []string{pattern}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	sort.Strings(paths)

	for _, path := range paths {
		set, loadErr := Load(path)
		if loadErr != nil {
			skipped = append(skipped, fmt.Sprintf("%s: %v", path, loadErr))
			continue
		}
		loaded = append(loaded, Loaded{Path: path, Set: set})
	}
	return loaded, skipped, nil
}

// SanitizeModelName replaces characters that are invalid in filenames.
func SanitizeModelName(name string) string {
	r := strings.NewReplacer("/", "-", "\\", "-", ":", "-", " ", "-")
	return r.Replace(name)
}
