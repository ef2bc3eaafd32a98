// Package vault provides capability-scoped access to the user's document
// tree. Every operation takes vault-relative paths, stays inside the
// vault boundary, and treats deletion as a move into a trash folder so
// nothing a tool triggers is irreversible.
package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"
)

const (
	// TrashDir is the vault-relative folder deleted documents move into
	TrashDir = ".trash"

	// DefaultListLimit bounds list results when the caller passes no limit
	DefaultListLimit = 500
)

var (
	// ErrNotFound is returned when a path does not resolve to a document
	ErrNotFound = errors.New("document not found")

	// ErrTargetNotFound is returned by Replace when the target substring
	// is absent in every tried encoding
	ErrTargetNotFound = errors.New("target text not found")
)

// Vault is a document store rooted at a single directory.
type Vault struct {
	guard *Guard
}

// Options configures vault construction.
type Options struct {
	// IgnorePatterns overrides DefaultIgnorePatterns when non-nil
	IgnorePatterns []string
}

// Option configures a Vault.
type Option func(*Options)

// WithIgnorePatterns replaces the default ignore patterns.
func WithIgnorePatterns(patterns ...string) Option {
	return func(o *Options) {
		o.IgnorePatterns = patterns
	}
}

// New creates a vault rooted at the given directory.
func New(root string, opts ...Option) (*Vault, error) {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	patterns := options.IgnorePatterns
	if patterns == nil {
		patterns = DefaultIgnorePatterns
	}

	guard, err := NewGuard(root, patterns)
	if err != nil {
		return nil, err
	}

	return &Vault{guard: guard}, nil
}

// Root returns the absolute path of the vault root.
func (v *Vault) Root() string {
	return v.guard.Root()
}

// Guard returns the vault's boundary guard.
func (v *Vault) Guard() *Guard {
	return v.guard
}

// List returns vault-relative document paths under dir.
// Non-recursive listings include immediate subdirectories with a
// trailing slash so callers can descend. Recursive listings walk
// depth-first and return files only. Results are truncated to limit
// (DefaultListLimit when limit <= 0).
func (v *Vault) List(dir string, recursive bool, limit int) ([]string, error) {
	if dir == "" {
		dir = "."
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	if err := v.guard.Validate(dir); err != nil {
		return nil, err
	}
	absDir, err := v.guard.Resolve(dir)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(absDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("directory '%s': %w", dir, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path '%s' is not a directory", dir)
	}

	var paths []string
	if recursive {
		paths, err = v.listRecursive(absDir, limit)
	} else {
		paths, err = v.listDirectory(absDir, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	return paths, nil
}

// listDirectory lists the immediate children of a single directory.
func (v *Vault) listDirectory(absDir string, limit int) ([]string, error) {
	entries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, err
	}

	// Directories first, then files, each alphabetical
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return entries[i].Name() < entries[j].Name()
	})

	var paths []string
	for _, entry := range entries {
		if len(paths) >= limit {
			break
		}

		fullPath := filepath.Join(absDir, entry.Name())
		if v.guard.ShouldIgnore(fullPath) {
			continue
		}

		relPath, err := v.guard.MakeRelative(fullPath)
		if err != nil {
			continue
		}
		if entry.IsDir() {
			relPath += "/"
		}
		paths = append(paths, relPath)
	}

	return paths, nil
}

// listRecursive walks the tree depth-first and collects file paths.
func (v *Vault) listRecursive(absDir string, limit int) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(absDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip entries we cannot read
		}
		if path == absDir {
			return nil
		}
		if len(paths) >= limit {
			return filepath.SkipAll
		}

		if !v.guard.IsWithinVault(path) {
			return filepath.SkipDir
		}
		if v.guard.ShouldIgnore(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		relPath, relErr := v.guard.MakeRelative(path)
		if relErr != nil {
			return nil
		}
		paths = append(paths, relPath)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return paths, nil
}

// Read returns the content of the document at the given path.
func (v *Vault) Read(path string) (string, error) {
	absPath, err := v.resolveDocument(path)
	if err != nil {
		return "", err
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("document '%s': %w", path, ErrNotFound)
		}
		return "", fmt.Errorf("failed to read document: %w", err)
	}

	return string(content), nil
}

// Save writes content to the document at the given path, creating it
// and any intermediate folders as needed, or overwriting an existing
// document. The write is atomic.
func (v *Vault) Save(path, content string) error {
	absPath, err := v.resolveDocument(path)
	if err != nil {
		return err
	}

	// "already exists" races on folder creation are harmless
	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil && !os.IsExist(err) {
		return fmt.Errorf("failed to create folders: %w", err)
	}

	tmpPath := absPath + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	if err := os.Rename(tmpPath, absPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize document: %w", err)
	}

	return nil
}

// FindByName returns the vault-relative paths of all documents whose
// name contains the fragment, case-insensitively. Results are ordered
// by fuzzy-match quality so the closest names come first.
func (v *Vault) FindByName(fragment string) ([]string, error) {
	all, err := v.listRecursive(v.guard.Root(), DefaultListLimit*10)
	if err != nil {
		return nil, fmt.Errorf("failed to scan vault: %w", err)
	}

	lowered := strings.ToLower(fragment)
	var candidates []string
	var names []string
	for _, path := range all {
		name := filepath.Base(path)
		if strings.Contains(strings.ToLower(name), lowered) {
			candidates = append(candidates, path)
			names = append(names, name)
		}
	}

	if fragment == "" || len(candidates) <= 1 {
		return candidates, nil
	}

	matches := fuzzy.Find(lowered, lowerAll(names))
	ranked := make([]string, 0, len(candidates))
	seen := make(map[int]bool, len(matches))
	for _, m := range matches {
		ranked = append(ranked, candidates[m.Index])
		seen[m.Index] = true
	}
	// Substring hits the fuzzy matcher missed keep their scan order
	for i, path := range candidates {
		if !seen[i] {
			ranked = append(ranked, path)
		}
	}

	return ranked, nil
}

func lowerAll(values []string) []string {
	lowered := make([]string, len(values))
	for i, value := range values {
		lowered[i] = strings.ToLower(value)
	}
	return lowered
}

// Replace substitutes the first occurrence of target in the document
// with replacement. Model-generated target strings sometimes arrive
// URL-encoded or double-encoded, so the literal target is tried first,
// then its encoded variant, then its decoded variant, before the miss
// is reported as ErrTargetNotFound.
func (v *Vault) Replace(path, target, replacement string) error {
	content, err := v.Read(path)
	if err != nil {
		return err
	}
	if target == "" {
		return fmt.Errorf("target cannot be empty")
	}

	for _, candidate := range targetVariants(target) {
		if strings.Contains(content, candidate) {
			updated := strings.Replace(content, candidate, replacement, 1)
			return v.Save(path, updated)
		}
	}

	return fmt.Errorf("'%s' in document '%s': %w", target, path, ErrTargetNotFound)
}

// targetVariants returns the encodings of target to try, in order.
func targetVariants(target string) []string {
	variants := []string{target}

	if encoded := url.PathEscape(target); encoded != target {
		variants = append(variants, encoded)
	}
	if decoded, err := url.PathUnescape(target); err == nil && decoded != target {
		variants = append(variants, decoded)
	}

	return variants
}

// DeleteToTrash moves the document into the vault's trash folder and
// returns the document's new vault-relative path. Name collisions in
// the trash are resolved by appending a timestamp, never by
// overwriting, so no delete is destructive.
func (v *Vault) DeleteToTrash(path string) (string, error) {
	absPath, err := v.resolveDocument(path)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(absPath); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("document '%s': %w", path, ErrNotFound)
		}
		return "", fmt.Errorf("failed to stat document: %w", err)
	}

	trashDir := filepath.Join(v.guard.Root(), TrashDir)
	if err := os.MkdirAll(trashDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create trash folder: %w", err)
	}

	base := filepath.Base(absPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	dest := filepath.Join(trashDir, base)
	for n := int64(0); ; n++ {
		if _, err := os.Lstat(dest); os.IsNotExist(err) {
			break
		}
		stamp := time.Now().UnixMilli() + n
		dest = filepath.Join(trashDir, fmt.Sprintf("%s-%d%s", stem, stamp, ext))
	}

	if err := os.Rename(absPath, dest); err != nil {
		return "", fmt.Errorf("failed to move document to trash: %w", err)
	}

	return TrashDir + "/" + filepath.Base(dest), nil
}

// UpdateFrontmatter sets a single top-level front matter key on the
// document, creating the front matter block if the document has none.
// Existing keys, their order, and comments are preserved.
func (v *Vault) UpdateFrontmatter(path, key, value string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}

	content, err := v.Read(path)
	if err != nil {
		return err
	}

	updated, err := patchFrontmatter(content, key, value)
	if err != nil {
		return fmt.Errorf("failed to update front matter of '%s': %w", path, err)
	}

	return v.Save(path, updated)
}

// resolveDocument validates a document path and resolves it to an
// absolute path, refusing paths that are ignored or escape the vault.
func (v *Vault) resolveDocument(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if err := v.guard.Validate(path); err != nil {
		return "", err
	}

	absPath, err := v.guard.Resolve(path)
	if err != nil {
		return "", err
	}

	if v.guard.ShouldIgnore(absPath) {
		return "", fmt.Errorf("path '%s' is not accessible", path)
	}

	return absPath, nil
}
