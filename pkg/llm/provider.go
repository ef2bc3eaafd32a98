// Package llm defines the common chat contract shared by every model
// vendor: turns, tool calls, canonical response parts, usage metadata,
// and the Provider interface the orchestrator talks to.
//
// Example usage:
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//
//	    "github.com/quillhq/quill/pkg/llm"
//	    "github.com/quillhq/quill/pkg/llm/ollama"
//	)
//
//	func main() {
//	    provider := ollama.NewProvider(nil)
//
//	    resp, err := provider.Chat(context.Background(), &llm.ChatRequest{
//	        Model: "llama3.2",
//	        Turns: []llm.Turn{llm.NewUserTurn("Hello!")},
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(resp.Text())
//	}
package llm

import (
	"context"
	"errors"
)

var (
	// ErrNoCredentials is returned when a provider cannot obtain the
	// credential it needs to serve a chat request.
	ErrNoCredentials = errors.New("credentials not found")

	// ErrUnknownModel is returned when a model ID cannot be routed to
	// any registered provider.
	ErrUnknownModel = errors.New("unknown model")
)

// CredentialSource resolves plaintext credentials by provider name
// ("gemini", "anthropic", "openai", "ollama", "websearch"). Sources are
// consulted lazily, on first use, never at construction time.
type CredentialSource interface {
	Credential(name string) (string, error)
}

// ToolDefinition is the vendor-neutral declaration of one callable
// tool. Parameters is a JSON-schema object map; each adapter translates
// it into the vendor's own function-declaration syntax.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ChatRequest is a single provider round-trip: the full conversation so
// far plus the declarations of the tools the model may call.
type ChatRequest struct {
	// Model is the vendor model ID to run the request against.
	Model string

	// SystemInstruction is the system prompt for the conversation,
	// applied in whatever shape the vendor supports.
	SystemInstruction string

	// Turns is the ordered conversation, ending with the turn being
	// submitted. Tool-call and tool-result turns appear only while a
	// turn's resolution loop is in flight.
	Turns []Turn

	// Tools declares the callable tools for this request. Empty means
	// the model cannot request tool invocations.
	Tools []ToolDefinition

	// HighReasoning asks the vendor to emit intermediate thought
	// content alongside the final answer, where supported.
	HighReasoning bool
}

// Provider is one model vendor normalized to the common chat contract.
//
// Implementations initialize their vendor client lazily on first use so
// construction never touches credentials or the network. Chat fails
// with ErrNoCredentials when the credential source has nothing; Models
// degrades instead (fallback or empty list, nil error) so a model
// picker can still render.
type Provider interface {
	// Name returns the provider's stable lowercase identifier
	// ("gemini", "anthropic", "openai", "ollama").
	Name() string

	// Models returns the provider's model catalog.
	Models(ctx context.Context) ([]ModelInfo, error)

	// Chat runs one request/response exchange and normalizes the
	// vendor response into canonical parts, tool calls, finish reason
	// and usage.
	Chat(ctx context.Context, req *ChatRequest) (*Response, error)
}

// ModelInfo is one catalog entry of a provider's model listing.
// Entries are advisory UI data, cached in memory for the process
// lifetime.
type ModelInfo struct {
	// ID is the vendor model identifier used in requests.
	ID string

	// DisplayName is a human-readable label, falling back to ID.
	DisplayName string

	// Provider is the owning provider's Name().
	Provider string
}
