package vault

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultIgnorePatterns hides dot-entries at every depth, which covers
// the trash folder, host configuration folders, and OS droppings.
var DefaultIgnorePatterns = []string{
	".*",
	".*/**",
	"**/.*",
	"**/.*/**",
}

// Guard enforces vault boundary restrictions on document paths.
// All paths handed to the store are vault-relative; the guard resolves
// them against the vault root and rejects anything that would escape it,
// preventing traversal through ".." components or symlinks.
type Guard struct {
	root    string // Absolute path to the vault root
	ignores []glob.Glob
}

// NewGuard creates a guard for the given vault root directory.
// The root is converted to an absolute path and symlinks are evaluated.
// Ignore patterns use glob syntax with '/' as the separator and are
// matched against vault-relative paths.
func NewGuard(root string, ignorePatterns []string) (*Guard, error) {
	if root == "" {
		return nil, fmt.Errorf("vault root cannot be empty")
	}

	absPath, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve vault root: %w", err)
	}

	evalPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate vault root symlinks: %w", err)
	}

	ignores := make([]glob.Glob, 0, len(ignorePatterns))
	for _, pattern := range ignorePatterns {
		compiled, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern '%s': %w", pattern, err)
		}
		ignores = append(ignores, compiled)
	}

	return &Guard{
		root:    evalPath,
		ignores: ignores,
	}, nil
}

// Root returns the absolute path of the vault root.
func (g *Guard) Root() string {
	return g.root
}

// Resolve converts a vault-relative path to an absolute path.
// Leading separators are stripped so "/notes/a.md" and "notes/a.md"
// address the same document. Symlinks are evaluated; for paths that do
// not exist yet, existing ancestors are resolved and the remainder is
// reattached.
func (g *Guard) Resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	// Vault paths are always relative to the root, never OS-absolute
	trimmed := strings.TrimLeft(filepath.ToSlash(path), "/")
	if trimmed == "" {
		return g.root, nil
	}

	cleanPath := filepath.Clean(filepath.FromSlash(trimmed))
	absPath := filepath.Clean(filepath.Join(g.root, cleanPath))

	return g.resolveSymlinks(absPath), nil
}

// Validate checks that the given vault-relative path stays within the
// vault boundaries after resolution.
func (g *Guard) Validate(path string) error {
	resolved, err := g.Resolve(path)
	if err != nil {
		return err
	}

	if !g.IsWithinVault(resolved) {
		return fmt.Errorf("path '%s' is outside the vault", path)
	}

	return nil
}

// IsWithinVault checks if an absolute path is the vault root or a
// descendant of it. This is the core boundary check.
func (g *Guard) IsWithinVault(absPath string) bool {
	evalPath := g.resolveSymlinks(absPath)

	if evalPath == g.root {
		return true
	}
	return strings.HasPrefix(evalPath+string(filepath.Separator), g.root+string(filepath.Separator))
}

// resolveSymlinks resolves symlinks in a path, handling non-existent
// paths by walking up to the nearest existing ancestor and reattaching
// the remaining components.
func (g *Guard) resolveSymlinks(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}

	var components []string
	currentPath := path

	for {
		if resolved, err := filepath.EvalSymlinks(currentPath); err == nil {
			result := resolved
			for i := len(components) - 1; i >= 0; i-- {
				result = filepath.Join(result, components[i])
			}
			return result
		}

		dir := filepath.Dir(currentPath)
		if dir == currentPath || dir == "." || dir == "/" {
			// Reached root without finding an existing path
			return path
		}

		components = append(components, filepath.Base(currentPath))
		currentPath = dir
	}
}

// MakeRelative converts an absolute path to a vault-relative path with
// forward slashes. Returns an error if the path is not within the vault.
func (g *Guard) MakeRelative(absPath string) (string, error) {
	evalPath := g.resolveSymlinks(absPath)
	if !g.IsWithinVault(evalPath) {
		return "", fmt.Errorf("path '%s' is not within the vault", absPath)
	}

	relPath, err := filepath.Rel(g.root, evalPath)
	if err != nil {
		return "", fmt.Errorf("failed to make path relative: %w", err)
	}

	return filepath.ToSlash(relPath), nil
}

// ShouldIgnore checks if a path matches any ignore pattern.
// The path can be absolute or vault-relative; matching always happens
// against the vault-relative form.
func (g *Guard) ShouldIgnore(path string) bool {
	relPath := filepath.ToSlash(path)
	if filepath.IsAbs(path) {
		var err error
		relPath, err = g.MakeRelative(path)
		if err != nil {
			// Outside the vault; the boundary check handles that case
			return false
		}
	}
	relPath = strings.TrimLeft(relPath, "/")

	for _, pattern := range g.ignores {
		if pattern.Match(relPath) {
			return true
		}
	}
	return false
}
