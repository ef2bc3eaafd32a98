package config

import (
	"fmt"
	"sync"
)

const (
	// SectionIDChat is the identifier for the chat settings section
	SectionIDChat = "chat"

	// ModeDocument enables the note tools for a turn
	ModeDocument = "document"

	// ModeWeb enables the web search tool for a turn
	ModeWeb = "web"

	// DefaultConfigDoc is the vault path of the assistant configuration
	// document read for custom instructions and commands
	DefaultConfigDoc = "quill-config.md"
)

// ChatSection manages assistant conversation settings.
type ChatSection struct {
	DefaultModel  string
	Mode          string
	ConfigDoc     string
	HighReasoning bool
	mu            sync.RWMutex
}

// NewChatSection creates a new chat section with default settings.
func NewChatSection() *ChatSection {
	return &ChatSection{
		DefaultModel:  "",
		Mode:          ModeDocument,
		ConfigDoc:     DefaultConfigDoc,
		HighReasoning: false,
	}
}

// ID returns the section identifier.
func (s *ChatSection) ID() string {
	return SectionIDChat
}

// Title returns the section title.
func (s *ChatSection) Title() string {
	return "Chat Settings"
}

// Description returns the section description.
func (s *ChatSection) Description() string {
	return "Configure the assistant conversation: default model, tool mode (document or web), the vault path of the configuration document, and whether models are asked for deeper reasoning."
}

// Data returns the current settings data.
func (s *ChatSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]any{
		"default_model":  s.DefaultModel,
		"mode":           s.Mode,
		"config_doc":     s.ConfigDoc,
		"high_reasoning": s.HighReasoning,
	}
}

// SetData updates the settings from the provided data.
func (s *ChatSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if model, ok := data["default_model"].(string); ok {
		s.DefaultModel = model
	}

	if mode, ok := data["mode"].(string); ok {
		s.Mode = mode
	}

	if configDoc, ok := data["config_doc"].(string); ok {
		s.ConfigDoc = configDoc
	}

	if highReasoning, ok := data["high_reasoning"].(bool); ok {
		s.HighReasoning = highReasoning
	}

	return nil
}

// Validate validates the current settings.
func (s *ChatSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch s.Mode {
	case "", ModeDocument, ModeWeb:
		return nil
	default:
		return fmt.Errorf("invalid mode '%s': must be '%s' or '%s'", s.Mode, ModeDocument, ModeWeb)
	}
}

// Reset resets the section to default settings.
func (s *ChatSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DefaultModel = ""
	s.Mode = ModeDocument
	s.ConfigDoc = DefaultConfigDoc
	s.HighReasoning = false
}

// GetDefaultModel returns the configured default model ID.
func (s *ChatSection) GetDefaultModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.DefaultModel
}

// SetDefaultModel sets the default model ID.
func (s *ChatSection) SetDefaultModel(model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DefaultModel = model
}

// GetMode returns the configured tool mode.
// An empty string is treated as document mode.
func (s *ChatSection) GetMode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Mode == "" {
		return ModeDocument
	}
	return s.Mode
}

// SetMode sets the tool mode.
func (s *ChatSection) SetMode(mode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Mode = mode
}

// GetConfigDoc returns the vault path of the configuration document.
func (s *ChatSection) GetConfigDoc() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ConfigDoc == "" {
		return DefaultConfigDoc
	}
	return s.ConfigDoc
}

// SetConfigDoc sets the vault path of the configuration document.
func (s *ChatSection) SetConfigDoc(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ConfigDoc = path
}

// GetHighReasoning returns whether deeper reasoning is requested.
func (s *ChatSection) GetHighReasoning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.HighReasoning
}

// SetHighReasoning sets whether deeper reasoning is requested.
func (s *ChatSection) SetHighReasoning(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.HighReasoning = enabled
}
