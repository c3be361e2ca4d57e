package ui

import (
	"fmt"
	"strings"
)

// FormatError renders err for the terminal. The first line of the error text
// is the headline; further lines, as produced by errors.Join, are listed
// beneath it. Suggestions follow under a "Try:" heading.
func FormatError(err error, suggestions ...string) string {
	if err == nil {
		return ""
	}
	lines := strings.Split(strings.TrimSpace(err.Error()), "\n")

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", StyleBoldRed.Render("Error:"), lines[0])
	for _, line := range lines[1:] {
		if line = strings.TrimSpace(line); line != "" {
			fmt.Fprintf(&b, "  %s %s\n", StyleError.Render(SymbolCross), line)
		}
	}

	if len(suggestions) == 0 {
		return b.String()
	}
	b.WriteString("\n" + StyleHint.Render("  Try:") + "\n")
	for _, s := range suggestions {
		fmt.Fprintf(&b, "    %s %s\n", StyleHint.Render(SymbolArrow), s)
	}
	return b.String()
}
