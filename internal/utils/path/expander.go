package pathutils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	homeShortcutConstant         = "~"
	environmentReferenceConstant = "$"
)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// EnvironmentLookup resolves a single environment variable.
type EnvironmentLookup func(string) (string, bool)

// HomeExpander resolves "~" prefixes and $VARIABLE references in configured paths.
// Unknown variables are left in place so a typo stays visible in logs.
type HomeExpander struct {
	homeDirectoryProvider HomeDirectoryProvider
	environmentLookup     EnvironmentLookup

	homeOnce      sync.Once
	homeDirectory string
}

// NewHomeExpander constructs an expander backed by the process environment.
func NewHomeExpander() *HomeExpander {
	return NewHomeExpanderWithProvider(os.UserHomeDir)
}

// NewHomeExpanderWithProvider constructs an expander with a custom home directory source.
func NewHomeExpanderWithProvider(provider HomeDirectoryProvider) *HomeExpander {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &HomeExpander{homeDirectoryProvider: provider, environmentLookup: os.LookupEnv}
}

// WithEnvironment replaces the environment lookup used for $VARIABLE references.
func (expander *HomeExpander) WithEnvironment(lookup EnvironmentLookup) *HomeExpander {
	if expander == nil || lookup == nil {
		return expander
	}
	expander.environmentLookup = lookup
	return expander
}

// Expand returns candidatePath with environment references and a leading home shortcut resolved.
func (expander *HomeExpander) Expand(candidatePath string) string {
	if expander == nil || len(candidatePath) == 0 {
		return candidatePath
	}

	expanded := candidatePath
	if strings.Contains(expanded, environmentReferenceConstant) {
		expanded = os.Expand(expanded, expander.lookupVariable)
	}
	if !strings.HasPrefix(expanded, homeShortcutConstant) {
		return expanded
	}

	remainder := strings.TrimPrefix(expanded, homeShortcutConstant)
	if len(remainder) > 0 && remainder[0] != '/' && remainder[0] != os.PathSeparator {
		// ~user forms are not supported.
		return expanded
	}

	home := expander.home()
	if len(home) == 0 {
		return expanded
	}
	return filepath.Join(home, remainder)
}

func (expander *HomeExpander) lookupVariable(name string) string {
	if value, found := expander.environmentLookup(name); found {
		return value
	}
	return environmentReferenceConstant + "{" + name + "}"
}

func (expander *HomeExpander) home() string {
	expander.homeOnce.Do(func() {
		directory, lookupError := expander.homeDirectoryProvider()
		if lookupError == nil {
			expander.homeDirectory = directory
		}
	})
	return expander.homeDirectory
}
