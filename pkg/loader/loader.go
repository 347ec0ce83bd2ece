// Package loader discovers `.policy` files under a configured root
// directory, caches their parsed rules by mtime and TTL, and
// orchestrates evaluation of those rules against nodes via a storage
// handle (C9).
package loader

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/unet-io/unet/pkg/errcode"
	"github.com/unet-io/unet/pkg/log"
	"github.com/unet-io/unet/pkg/policy"
)

// GitConfig mirrors the `git` settings section (spec.md §6). Only the
// fields relevant to source selection are used here; sync/clone
// mechanics are out of scope per spec.md §1.
type GitConfig struct {
	PoliciesRepo string
	Branch       string
	SyncInterval time.Duration
}

// PolicyFile is one successfully loaded `.policy` file.
type PolicyFile struct {
	Path     string
	Rules    []*policy.Rule
	Modified time.Time
	Size     int64
}

// FileError pairs a path with the error encountered loading it.
type FileError struct {
	Path  string
	Error error
}

// LoadResult is the outcome of a directory load: files that parsed,
// files that failed (which does not stop the others), and the total
// count attempted.
type LoadResult struct {
	Loaded     []PolicyFile
	Errors     []FileError
	TotalFiles int
}

type cachedPolicy struct {
	rules        []*policy.Rule
	observedMod  time.Time
	cachedAt     time.Time
}

func (c cachedPolicy) isValid(ttl time.Duration, currentMod time.Time, now time.Time) bool {
	if !c.observedMod.Equal(currentMod) {
		return false
	}
	return now.Sub(c.cachedAt) < ttl
}

// Loader discovers and caches policy rules from a filesystem root (or,
// in a future version, a VCS source — attempting that now returns a
// SourceUnavailable error, matching the original implementation's
// "not yet implemented" message).
type Loader struct {
	mu        sync.Mutex
	cache     map[string]cachedPolicy
	localDir  string
	gitConfig GitConfig
	cacheTTL  time.Duration
	now       func() time.Time
}

// NewLoader creates a Loader with a 300s cache TTL; WithCacheTTL
// overrides it.
func NewLoader(gitConfig GitConfig) *Loader {
	return &Loader{
		cache:     map[string]cachedPolicy{},
		gitConfig: gitConfig,
		cacheTTL:  300 * time.Second,
		now:       time.Now,
	}
}

// WithLocalDir sets the filesystem root to discover `.policy` files under.
func (l *Loader) WithLocalDir(dir string) *Loader {
	l.localDir = dir
	return l
}

// WithCacheTTL overrides the default cache TTL.
func (l *Loader) WithCacheTTL(ttl time.Duration) *Loader {
	l.cacheTTL = ttl
	return l
}

// policiesDirectory resolves the configured policy source. Local
// directory takes priority; a configured git repo with no local
// directory returns SourceUnavailable; neither configured is also an
// error.
func (l *Loader) policiesDirectory() (string, error) {
	if l.localDir != "" {
		return l.localDir, nil
	}
	if l.gitConfig.PoliciesRepo != "" {
		return "", errcode.SourceUnavailableError{
			Message: "Git repository integration not yet implemented for: " + l.gitConfig.PoliciesRepo,
		}
	}
	return "", errcode.SourceUnavailableError{Message: "no policies source configured"}
}

// LoadPolicies discovers and loads every `.policy` file under the
// configured source.
func (l *Loader) LoadPolicies() (LoadResult, error) {
	dir, err := l.policiesDirectory()
	if err != nil {
		return LoadResult{}, err
	}
	return l.LoadPoliciesFromDirectory(dir)
}

// LoadPoliciesFromDirectory loads every `.policy` file under dir directly.
func (l *Loader) LoadPoliciesFromDirectory(dir string) (LoadResult, error) {
	if err := l.validateDirectory(dir); err != nil {
		return LoadResult{}, err
	}
	files, err := l.collectPolicyFiles(dir)
	if err != nil {
		return LoadResult{}, err
	}
	return l.processPolicyFiles(files), nil
}

func (l *Loader) validateDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return errcode.SourceUnavailableError{Message: "policy directory not found: " + dir}
	}
	if !info.IsDir() {
		return errcode.SourceUnavailableError{Message: "policy path is not a directory: " + dir}
	}
	return nil
}

func (l *Loader) collectPolicyFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".policy") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errcode.SourceUnavailableError{Message: err.Error()}
	}
	return files, nil
}

func (l *Loader) processPolicyFiles(files []string) LoadResult {
	result := LoadResult{TotalFiles: len(files)}
	for _, path := range files {
		pf, err := l.LoadPolicyFile(path)
		if err != nil {
			result.Errors = append(result.Errors, FileError{Path: path, Error: err})
			log.WithComponent("policy-loader").Warn().Err(err).Str("path", path).Msg("failed to load policy file")
			continue
		}
		result.Loaded = append(result.Loaded, *pf)
	}
	return result
}

// LoadPolicyFile loads a single file, serving from cache when its
// mtime is unchanged and the cache entry is within TTL.
func (l *Loader) LoadPolicyFile(path string) (*PolicyFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errcode.SourceUnavailableError{Message: "cannot stat policy file: " + path}
	}
	mod := info.ModTime()

	l.mu.Lock()
	entry, ok := l.cache[path]
	now := l.now()
	if ok && entry.isValid(l.cacheTTL, mod, now) {
		l.mu.Unlock()
		return &PolicyFile{Path: path, Rules: entry.rules, Modified: mod, Size: info.Size()}, nil
	}
	l.mu.Unlock()

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errcode.SourceUnavailableError{Message: "cannot read policy file: " + path}
	}
	rules, err := policy.ParseFile(string(content))
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cache[path] = cachedPolicy{rules: rules, observedMod: mod, cachedAt: now}
	l.mu.Unlock()

	return &PolicyFile{Path: path, Rules: rules, Modified: mod, Size: info.Size()}, nil
}

// ClearCache drops every cached entry.
func (l *Loader) ClearCache() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = map[string]cachedPolicy{}
}

// CacheStats returns the number of currently cached files.
func (l *Loader) CacheStats() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.cache)
}

// ClearExpiredCache drops entries whose TTL has elapsed and returns
// the number dropped.
func (l *Loader) ClearExpiredCache() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	cleared := 0
	for path, entry := range l.cache {
		if now.Sub(entry.cachedAt) >= l.cacheTTL {
			delete(l.cache, path)
			cleared++
		}
	}
	return cleared
}

// RuleValidation is one rule's parse outcome from ValidatePolicyFile.
type RuleValidation struct {
	Valid bool
	Error string
}

// ValidatePolicyFile parses content without caching, reporting a
// per-rule (here, whole-file, since the grammar has no recovery point
// between rules) valid/invalid breakdown.
func ValidatePolicyFile(content string) ([]RuleValidation, error) {
	rules, err := policy.ParseFile(content)
	if err != nil {
		return []RuleValidation{{Valid: false, Error: err.Error()}}, err
	}
	out := make([]RuleValidation, len(rules))
	for i := range rules {
		out[i] = RuleValidation{Valid: true}
	}
	return out, nil
}
