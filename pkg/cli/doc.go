// Package cli holds the output helpers shared by the voicebridge commands:
// YAML and JSON rendering, human-readable durations, and lipgloss tables.
//
//	cli.Output(records, cli.OutputOptions{Format: cli.FormatJSON})
package cli
