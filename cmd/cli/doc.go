// Package cli constructs the multipush command-line interface. It wires the
// Cobra command hierarchy, the layered configuration loader (defaults,
// embedded presets, configuration files and MULTIPUSH_ environment
// variables) and structured logging, and maps command errors to exit codes.
package cli
