package flags

import (
	"fmt"
	"strings"
)

const (
	choiceUsageFullTemplateConstant = "`%s` %s"
	choiceSeparatorConstant         = "|"
)

// FormatChoiceUsage prefixes description with the accepted choices, the default one in upper case.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	rendered := make([]string, 0, len(choices))
	for _, choice := range choices {
		if strings.EqualFold(choice, defaultChoice) {
			rendered = append(rendered, strings.ToUpper(choice))
			continue
		}
		rendered = append(rendered, strings.ToLower(choice))
	}
	placeholder := "<" + strings.Join(rendered, choiceSeparatorConstant) + ">"
	return strings.TrimSpace(fmt.Sprintf(choiceUsageFullTemplateConstant, placeholder, strings.TrimSpace(description)))
}
