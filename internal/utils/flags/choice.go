package flags

import (
	"strings"
)

const (
	choiceSeparatorConstant = "|"
	backquoteConstant       = "`"
)

// FormatChoiceUsage renders "`<a|B|c>` description", upper-casing the default choice.
// pflag picks the backquoted text up as the value name in help output.
// Blank choices are skipped and later case-insensitive duplicates are dropped.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	normalizedDefault := strings.ToLower(strings.TrimSpace(defaultChoice))

	var placeholder strings.Builder
	placeholder.WriteString(backquoteConstant + "<")
	written := make(map[string]bool, len(choices))
	for _, choice := range choices {
		trimmed := strings.TrimSpace(choice)
		normalized := strings.ToLower(trimmed)
		if len(trimmed) == 0 || written[normalized] {
			continue
		}
		if len(written) > 0 {
			placeholder.WriteString(choiceSeparatorConstant)
		}
		written[normalized] = true
		if normalized == normalizedDefault {
			trimmed = strings.ToUpper(trimmed)
		}
		placeholder.WriteString(trimmed)
	}
	placeholder.WriteString(">" + backquoteConstant)

	trimmedDescription := strings.TrimSpace(description)
	if len(trimmedDescription) == 0 {
		return placeholder.String()
	}
	return placeholder.String() + " " + trimmedDescription
}
