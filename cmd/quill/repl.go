package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/quillhq/quill/pkg/chat"
	"github.com/quillhq/quill/pkg/config"
	"github.com/quillhq/quill/pkg/llm"
)

// session owns one interactive conversation: the history, the active
// model and mode, and the settings they persist to.
type session struct {
	orch          *chat.Orchestrator
	registry      *llm.Registry
	settings      *config.Manager
	chatCfg       *config.ChatSection
	vaultRoot     string
	model         string
	mode          chat.Mode
	highReasoning bool
	history       []llm.Turn
	out           io.Writer
}

// once runs a single prompt and exits. Used by the -prompt flag.
func (s *session) once(ctx context.Context, prompt string) error {
	text, usage, err := s.chat(ctx, prompt)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, text)
	if usage != nil {
		fmt.Fprintln(s.out, formatUsage(*usage))
	}
	return nil
}

// run starts the interactive loop.
func (s *session) run(ctx context.Context) error {
	fmt.Fprintf(s.out, "Quill v%s\n", version)
	fmt.Fprintf(s.out, "Vault: %s\n", s.vaultRoot)
	fmt.Fprintf(s.out, "Model: %s  Mode: %s\n", s.displayModel(), s.mode)
	fmt.Fprintln(s.out, "Type /help for commands.")
	fmt.Fprintln(s.out)

	reader := bufio.NewReader(os.Stdin)
	for {
		if ctx.Err() != nil {
			return nil
		}

		fmt.Fprint(s.out, "> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				fmt.Fprintln(s.out)
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := s.handleCommand(ctx, line); quit {
				return nil
			}
			continue
		}

		s.submit(ctx, line)
	}
}

// submit runs one conversational turn and prints the result. Turn
// errors are printed, not fatal; the session continues.
func (s *session) submit(ctx context.Context, prompt string) {
	if s.model == "" {
		fmt.Fprintln(s.out, "No model selected. Use /models to list and /model <id> to pick one.")
		return
	}

	text, usage, err := s.chat(ctx, prompt)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n\n", err)
		return
	}

	fmt.Fprintf(s.out, "\n%s\n\n", text)
	if usage != nil {
		fmt.Fprintf(s.out, "%s\n\n", formatUsage(*usage))
	}

	s.history = append(s.history, llm.NewUserTurn(prompt), llm.NewModelTurn(text))
}

// chat runs the orchestrator for one prompt against the session state.
func (s *session) chat(ctx context.Context, prompt string) (string, *llm.Usage, error) {
	var last llm.Usage
	var seen bool

	text, err := s.orch.Chat(ctx, chat.Request{
		Prompt:  prompt,
		History: s.history,
		Model:   s.model,
		Mode:    s.mode,
		Options: chat.Options{HighReasoning: s.highReasoning},
		OnToolNotify: func(msg string) {
			fmt.Fprintf(s.out, "  %s\n", msg)
		},
		OnMetadata: func(u llm.Usage) {
			last = u
			seen = true
		},
	})
	if err != nil {
		return "", nil, err
	}
	if !seen {
		return text, nil, nil
	}
	return text, &last, nil
}

// handleCommand executes one slash command. Returns true when the
// session should end.
func (s *session) handleCommand(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	command, args := fields[0], fields[1:]

	switch command {
	case "/quit", "/exit":
		return true

	case "/help":
		s.printHelp()

	case "/new":
		s.history = nil
		fmt.Fprintln(s.out, "Conversation cleared.")

	case "/models":
		if err := printModelCatalog(ctx, s.registry); err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}

	case "/model":
		if len(args) == 0 {
			fmt.Fprintf(s.out, "Current model: %s\n", s.displayModel())
			return false
		}
		s.model = args[0]
		s.chatCfg.SetDefaultModel(s.model)
		s.persist()
		fmt.Fprintf(s.out, "Model set to %s.\n", s.model)

	case "/mode":
		if len(args) == 0 {
			fmt.Fprintf(s.out, "Current mode: %s\n", s.mode)
			return false
		}
		mode := chat.Mode(args[0])
		if mode != chat.ModeDocument && mode != chat.ModeWeb {
			fmt.Fprintf(s.out, "Unknown mode %q (document or web).\n", args[0])
			return false
		}
		s.mode = mode
		s.chatCfg.SetMode(string(mode))
		s.persist()
		fmt.Fprintf(s.out, "Mode set to %s.\n", s.mode)

	case "/reasoning":
		if len(args) == 0 || (args[0] != "on" && args[0] != "off") {
			fmt.Fprintf(s.out, "Usage: /reasoning on|off (currently %s)\n", onOff(s.highReasoning))
			return false
		}
		s.highReasoning = args[0] == "on"
		s.chatCfg.SetHighReasoning(s.highReasoning)
		s.persist()
		fmt.Fprintf(s.out, "High reasoning %s.\n", onOff(s.highReasoning))

	case "/commands":
		s.printCustomCommands()

	case "/run":
		if len(args) == 0 {
			fmt.Fprintln(s.out, "Usage: /run <command label>")
			return false
		}
		s.runCustomCommand(ctx, strings.Join(args, " "))

	default:
		fmt.Fprintf(s.out, "Unknown command %s. Type /help for commands.\n", command)
	}
	return false
}

// printCustomCommands lists the commands declared in the vault's
// config document.
func (s *session) printCustomCommands() {
	commands := s.orch.Commands()
	if len(commands) == 0 {
		fmt.Fprintf(s.out, "No custom commands. Add a \"## Commands\" section to %s.\n", s.chatCfg.GetConfigDoc())
		return
	}
	for _, cmd := range commands {
		fmt.Fprintf(s.out, "  %s: %s\n", cmd.Label, cmd.Prompt)
	}
}

// runCustomCommand submits the prompt of the config-document command
// with the given label. Labels match case-insensitively.
func (s *session) runCustomCommand(ctx context.Context, label string) {
	for _, cmd := range s.orch.Commands() {
		if strings.EqualFold(cmd.Label, label) {
			fmt.Fprintf(s.out, "Running %s...\n", cmd.Label)
			s.submit(ctx, cmd.Prompt)
			return
		}
	}
	fmt.Fprintf(s.out, "No command named %q. Use /commands to list them.\n", label)
}

// persist saves the settings sections, warning instead of failing the
// session when the write goes wrong.
func (s *session) persist() {
	if err := s.settings.SaveAll(); err != nil {
		fmt.Fprintf(s.out, "Warning: failed to save settings: %v\n", err)
	}
}

func (s *session) printHelp() {
	fmt.Fprintln(s.out, "Commands:")
	fmt.Fprintln(s.out, "  /model [id]        Show or set the active model")
	fmt.Fprintln(s.out, "  /models            List available models")
	fmt.Fprintln(s.out, "  /mode [document|web]  Show or set the chat mode")
	fmt.Fprintln(s.out, "  /reasoning on|off  Toggle high reasoning")
	fmt.Fprintln(s.out, "  /commands          List config-document commands")
	fmt.Fprintln(s.out, "  /run <label>       Run a config-document command")
	fmt.Fprintln(s.out, "  /new               Clear the conversation")
	fmt.Fprintln(s.out, "  /quit              End the session")
}

func (s *session) displayModel() string {
	if s.model == "" {
		return "(none)"
	}
	return s.model
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}

// formatUsage renders one turn's final token accounting.
func formatUsage(u llm.Usage) string {
	suffix := ""
	if u.Estimated {
		suffix = " (estimated)"
	}
	if u.ThoughtTokens > 0 {
		return fmt.Sprintf("[tokens: %d prompt, %d completion, %d thought, %d total%s]",
			u.PromptTokens, u.CompletionTokens, u.ThoughtTokens, u.TotalTokens, suffix)
	}
	return fmt.Sprintf("[tokens: %d prompt, %d completion, %d total%s]",
		u.PromptTokens, u.CompletionTokens, u.TotalTokens, suffix)
}
