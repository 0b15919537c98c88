// Package ui renders terminal output for the dedupe workflow.
//
//  1. [ProgressBar] : consumes the engine's ProgressUpdate channel and redraws one status line
//  2. [TerminalPrompter] : asks for a playlist id and for confirmation with charmbracelet/huh
//  3. [Palette] : lipgloss styles shared by the commands
//
// Progress updates arrive over a buffered channel fed with non-blocking sends, so the
// renderer may skip intermediate updates but always sees the channel close.
package ui
