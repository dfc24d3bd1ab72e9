// Package execshell runs external tools (git in practice) for multipush.
//
// ShellExecutor wraps a CommandRunner with structured zap logging, per-command
// timeouts, lifecycle observers, and a fixed number of retries for failures
// whose standard error matches a known transient condition. OSCommandRunner is
// the os/exec backed runner used in production; tests inject their own.
package execshell
