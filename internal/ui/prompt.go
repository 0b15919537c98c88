package ui

import (
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/dupx/internal/services"
	"github.com/desertthunder/dupx/internal/shared"
)

// Prompter asks the user for the inputs the dedupe command cannot take from flags.
type Prompter interface {
	PlaylistID() (string, error)
	Confirm(title, description string) bool
}

// TerminalPrompter implements [Prompter] with huh fields.
type TerminalPrompter struct {
	logger  *log.Logger
	input   func(title string, validate func(string) error, value *string) error
	confirm func(title, description string, value *bool) error
}

func NewTerminalPrompter(logger *log.Logger) *TerminalPrompter {
	return &TerminalPrompter{logger: logger, input: runInput, confirm: runConfirm}
}

// prompts draw on stderr so stdout carries only the report.
func run(field huh.Field) error {
	return huh.NewForm(huh.NewGroup(field)).
		WithProgramOptions(tea.WithOutput(os.Stderr)).
		Run()
}

func runInput(title string, validate func(string) error, value *string) error {
	return run(huh.NewInput().
		Title(title).
		Placeholder("https://open.spotify.com/playlist/...").
		Validate(validate).
		Value(value))
}

func runConfirm(title, description string, value *bool) error {
	return run(huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(value))
}

func validatePlaylistID(s string) error {
	_, err := services.ParsePlaylistID(s)
	return err
}

// PlaylistID asks for a playlist id, URI or URL and returns the bare id.
func (p *TerminalPrompter) PlaylistID() (string, error) {
	var raw string
	if err := p.input("Playlist ID or link", validatePlaylistID, &raw); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", fmt.Errorf("%w: no playlist given", shared.ErrMissingArgument)
		}
		return "", fmt.Errorf("failed to read playlist id: %w", err)
	}
	return services.ParsePlaylistID(strings.TrimSpace(raw))
}

// Confirm reports whether the user agreed. Anything but an explicit yes is a no.
func (p *TerminalPrompter) Confirm(title, description string) bool {
	agreed := false
	if err := p.confirm(title, description, &agreed); err != nil {
		p.logger.Warn("could not read confirmation, assuming no", "error", err)
		return false
	}
	return agreed
}
