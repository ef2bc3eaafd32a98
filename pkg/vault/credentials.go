package vault

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// DefaultCredentialsDir is the vault folder holding credential documents.
const DefaultCredentialsDir = "quill"

// ErrNoCredential is returned when a credential can be found neither in
// the vault nor in the environment.
var ErrNoCredential = errors.New("credential not found")

// envFallbacks maps credential names to the environment variables
// consulted when the vault holds no credential document.
var envFallbacks = map[string][]string{
	"gemini":    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"anthropic": {"ANTHROPIC_API_KEY"},
	"openai":    {"OPENAI_API_KEY"},
	"ollama":    {"OLLAMA_HOST"},
	"websearch": {"TAVILY_API_KEY"},
}

// Credentials resolves plaintext credentials lazily from well-known
// vault documents, falling back to environment variables. A credential
// named "openai" lives at "<dir>/openai-api-key.md"; the document's
// whole trimmed content is the credential.
type Credentials struct {
	vault *Vault
	dir   string
}

// NewCredentials creates a credential source over the given vault.
// An empty dir selects DefaultCredentialsDir.
func NewCredentials(v *Vault, dir string) *Credentials {
	if dir == "" {
		dir = DefaultCredentialsDir
	}
	return &Credentials{vault: v, dir: dir}
}

// Credential returns the credential with the given name.
func (c *Credentials) Credential(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("credential name cannot be empty")
	}

	docPath := c.DocumentPath(name)
	if content, err := c.vault.Read(docPath); err == nil {
		if value := extractCredential(content); value != "" {
			return value, nil
		}
	}

	for _, envVar := range envFallbacks[name] {
		if value := strings.TrimSpace(os.Getenv(envVar)); value != "" {
			return value, nil
		}
	}

	return "", fmt.Errorf("'%s' (looked in vault document '%s' and environment): %w", name, docPath, ErrNoCredential)
}

// DocumentPath returns the vault path of the credential document for name.
func (c *Credentials) DocumentPath(name string) string {
	return c.dir + "/" + name + "-api-key.md"
}

// extractCredential returns the credential value held in a document,
// skipping any front matter and surrounding whitespace.
func extractCredential(content string) string {
	if _, body, found := splitFrontmatter(content); found {
		content = body
	}
	return strings.TrimSpace(content)
}
