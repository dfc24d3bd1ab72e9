// Package utils holds the CLI plumbing shared by every multipush command:
// layered Viper configuration loading, zap logger construction, and the
// command context that carries loaded configuration metadata.
package utils
