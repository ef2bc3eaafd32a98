// Package main provides the Quill command line runner: an interactive
// chat session (or a single one-shot prompt) over a note vault, with
// provider routing, tool calling and web search wired the same way a
// host application would wire them.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/quillhq/quill/pkg/chat"
	"github.com/quillhq/quill/pkg/config"
	"github.com/quillhq/quill/pkg/llm"
	"github.com/quillhq/quill/pkg/llm/anthropic"
	"github.com/quillhq/quill/pkg/llm/gemini"
	"github.com/quillhq/quill/pkg/llm/ollama"
	"github.com/quillhq/quill/pkg/llm/openai"
	"github.com/quillhq/quill/pkg/tools"
	"github.com/quillhq/quill/pkg/vault"
	"github.com/quillhq/quill/pkg/websearch"
)

const version = "0.1.0"

// CLIConfig holds command-line configuration.
type CLIConfig struct {
	Vault         string
	Settings      string
	Model         string
	Mode          string
	Prompt        string
	HighReasoning bool
	ListModels    bool
	ShowVersion   bool
}

func main() {
	cliConfig := parseFlags()

	if cliConfig.ShowVersion {
		fmt.Printf("Quill v%s\n", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		cancel()
	}()

	if err := run(ctx, cliConfig); err != nil {
		cancel()
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
	cancel()
}

// parseFlags parses command line flags.
func parseFlags() *CLIConfig {
	cliConfig := &CLIConfig{}

	flag.StringVar(&cliConfig.Vault, "vault", ".", "Vault root directory")
	flag.StringVar(&cliConfig.Settings, "settings", "", "Settings file path (default ~/.quill/config.json)")
	flag.StringVar(&cliConfig.Model, "model", "", "Model ID (overrides the settings default)")
	flag.StringVar(&cliConfig.Mode, "mode", "", "Chat mode: document or web (overrides the settings default)")
	flag.StringVar(&cliConfig.Prompt, "prompt", "", "Run a single prompt and exit")
	flag.BoolVar(&cliConfig.HighReasoning, "high-reasoning", false, "Ask the model for intermediate reasoning")
	flag.BoolVar(&cliConfig.ListModels, "list-models", false, "List available models and exit")
	flag.BoolVar(&cliConfig.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Quill - chat assistant for your note vault\n\n")
		fmt.Fprintf(os.Stderr, "Usage: quill [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Interactive session over the current directory\n")
		fmt.Fprintf(os.Stderr, "  quill -model gemini-2.5-flash\n\n")
		fmt.Fprintf(os.Stderr, "  # One-shot question against a vault\n")
		fmt.Fprintf(os.Stderr, "  quill -vault ~/notes -model llama3.2 -prompt \"List my open tasks\"\n\n")
		fmt.Fprintf(os.Stderr, "  # Web research mode\n")
		fmt.Fprintf(os.Stderr, "  quill -mode web -model claude-sonnet-4-5 -prompt \"Latest Go release?\"\n\n")
	}

	flag.Parse()
	return cliConfig
}

// run wires settings, vault, providers and tools together and starts
// the requested execution mode.
func run(ctx context.Context, cliConfig *CLIConfig) error {
	store, err := config.NewFileStore(cliConfig.Settings)
	if err != nil {
		return fmt.Errorf("failed to open settings: %w", err)
	}

	settings := config.NewManager(store)
	chatCfg := config.NewChatSection()
	searchCfg := config.NewWebSearchSection()
	if err := settings.RegisterSection(chatCfg); err != nil {
		return err
	}
	if err := settings.RegisterSection(searchCfg); err != nil {
		return err
	}
	if err := settings.LoadAll(); err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	v, err := vault.New(cliConfig.Vault)
	if err != nil {
		return fmt.Errorf("failed to open vault: %w", err)
	}

	creds := vault.NewCredentials(v, "")
	registry := llm.NewRegistry(
		gemini.NewProvider(creds),
		anthropic.NewProvider(creds),
		openai.NewProvider(creds),
		ollama.NewProvider(creds),
	)

	search := websearch.NewClient(creds,
		websearch.WithBaseURL(searchCfg.GetBaseURL()),
		websearch.WithMaxResults(searchCfg.GetMaxResults()),
		websearch.WithSearchDepth(searchCfg.GetSearchDepth()),
		websearch.WithIncludeAnswer(searchCfg.GetIncludeAnswer()),
	)

	orch := chat.NewOrchestrator(registry,
		chat.WithNoteTools(tools.NewNoteTools(v)),
		chat.WithSearchTools(tools.NewSearchTools(search)),
		chat.WithConfigSource(v),
		chat.WithConfigDocument(chatCfg.GetConfigDoc()),
	)

	if cliConfig.ListModels {
		return printModelCatalog(ctx, registry)
	}

	model := cliConfig.Model
	if model == "" {
		model = chatCfg.GetDefaultModel()
	}

	modeValue := cliConfig.Mode
	if modeValue == "" {
		modeValue = chatCfg.GetMode()
	}
	mode := chat.Mode(modeValue)
	if mode != chat.ModeDocument && mode != chat.ModeWeb {
		return fmt.Errorf("invalid mode %q (must be %q or %q)", modeValue, chat.ModeDocument, chat.ModeWeb)
	}

	sess := &session{
		orch:          orch,
		registry:      registry,
		settings:      settings,
		chatCfg:       chatCfg,
		vaultRoot:     v.Root(),
		model:         model,
		mode:          mode,
		highReasoning: cliConfig.HighReasoning || chatCfg.GetHighReasoning(),
		out:           os.Stdout,
	}

	if cliConfig.Prompt != "" {
		return sess.once(ctx, cliConfig.Prompt)
	}
	return sess.run(ctx)
}

// printModelCatalog lists every model the registered providers offer,
// grouped by provider.
func printModelCatalog(ctx context.Context, registry *llm.Registry) error {
	models := registry.Models(ctx)
	if len(models) == 0 {
		fmt.Println("No models available. Check provider credentials.")
		return nil
	}

	current := ""
	for _, m := range models {
		if m.Provider != current {
			current = m.Provider
			fmt.Printf("\n%s:\n", current)
		}
		if m.DisplayName != "" && m.DisplayName != m.ID {
			fmt.Printf("  %s (%s)\n", m.ID, m.DisplayName)
		} else {
			fmt.Printf("  %s\n", m.ID)
		}
	}
	fmt.Println()
	return nil
}
