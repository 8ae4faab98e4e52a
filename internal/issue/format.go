package issue

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Format renders a batch of issues the way the CLI reports them: a
// pluralized summary header followed by one line per issue, errors and
// warnings interleaved in the order they were produced.
func Format(issues List) string {
	if len(issues) == 0 {
		return ""
	}

	errs := len(issues.Errors())
	warns := len(issues.Warnings())

	var sb strings.Builder
	sb.WriteString(summary(errs, warns))
	sb.WriteString("\n\n")

	for i, is := range issues {
		sb.WriteString(fmt.Sprintf("[%d/%d] %s: %s", i+1, len(issues), strings.ToUpper(is.Severity.String()), is.Error()))
		if is.Step != "" {
			sb.WriteString(fmt.Sprintf(" (step %q", is.Step))
			if is.Plugin != "" {
				sb.WriteString(fmt.Sprintf(", plugin %q", is.Plugin))
			}
			sb.WriteString(")")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func summary(errs, warns int) string {
	switch {
	case errs > 0 && warns > 0:
		return printer.Sprintf("%d error(s) and %d warning(s)", errs, warns)
	case errs > 0:
		return printer.Sprintf("%d error(s)", errs)
	default:
		return printer.Sprintf("%d warning(s)", warns)
	}
}
