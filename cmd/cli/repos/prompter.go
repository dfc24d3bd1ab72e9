package repos

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// ConfirmationPrompter asks the user to approve an action.
type ConfirmationPrompter interface {
	Confirm(prompt string) (bool, error)
}

// PrompterFactory creates a prompter bound to a command's streams.
type PrompterFactory func(command *cobra.Command) ConfirmationPrompter

// InteractivityDetector reports whether confirmations can be requested.
type InteractivityDetector func(command *cobra.Command) bool

// IOConfirmationPrompter reads confirmation responses from an io.Reader.
type IOConfirmationPrompter struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewIOConfirmationPrompter constructs a prompter from the provided reader and writer.
func NewIOConfirmationPrompter(input io.Reader, output io.Writer) *IOConfirmationPrompter {
	return &IOConfirmationPrompter{reader: bufio.NewReader(input), writer: output}
}

// Confirm writes the prompt and interprets affirmative responses (y/yes).
func (prompter *IOConfirmationPrompter) Confirm(prompt string) (bool, error) {
	if prompter.writer != nil {
		if _, writeError := io.WriteString(prompter.writer, prompt); writeError != nil {
			return false, writeError
		}
	}

	response, readError := prompter.reader.ReadString('\n')
	if readError != nil && readError != io.EOF {
		return false, readError
	}

	switch strings.TrimSpace(strings.ToLower(response)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func resolvePrompter(factory PrompterFactory, command *cobra.Command) ConfirmationPrompter {
	if factory != nil {
		if prompter := factory(command); prompter != nil {
			return prompter
		}
	}
	return NewIOConfirmationPrompter(command.InOrStdin(), command.OutOrStdout())
}

// standardInputIsTerminal treats the command as interactive only when it reads from a terminal.
func standardInputIsTerminal(command *cobra.Command) bool {
	if command.InOrStdin() != os.Stdin {
		return false
	}
	descriptor := os.Stdin.Fd()
	return isatty.IsTerminal(descriptor) || isatty.IsCygwinTerminal(descriptor)
}
