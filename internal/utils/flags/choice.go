package flags

import (
	"fmt"
	"strings"
)

const (
	choicePlaceholderTemplateConstant = "<%s>"
	choiceSeparatorConstant           = "|"
	choiceUsageTemplateConstant       = "`%s` %s"
	choiceUsageBareTemplateConstant   = "`%s`"
	invalidChoiceTemplateConstant     = "invalid value %q for --%s: expected one of %s"
)

// FormatChoiceUsage builds usage text listing the choices with the default in upper case.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	normalizedDefault := strings.ToLower(strings.TrimSpace(defaultChoice))
	displayChoices := make([]string, 0, len(choices))
	for _, choice := range normalizeChoices(choices) {
		if choice == normalizedDefault {
			choice = strings.ToUpper(choice)
		}
		displayChoices = append(displayChoices, choice)
	}

	placeholder := fmt.Sprintf(choicePlaceholderTemplateConstant, strings.Join(displayChoices, choiceSeparatorConstant))
	trimmedDescription := strings.TrimSpace(description)
	if len(trimmedDescription) == 0 {
		return fmt.Sprintf(choiceUsageBareTemplateConstant, placeholder)
	}
	return fmt.Sprintf(choiceUsageTemplateConstant, placeholder, trimmedDescription)
}

// ParseChoice matches value case-insensitively against choices and returns the canonical lower-case choice.
// A blank value selects defaultChoice.
func ParseChoice(flagName string, value string, defaultChoice string, choices []string) (string, error) {
	normalizedValue := strings.ToLower(strings.TrimSpace(value))
	if len(normalizedValue) == 0 {
		normalizedValue = strings.ToLower(strings.TrimSpace(defaultChoice))
	}
	normalizedChoices := normalizeChoices(choices)
	for _, choice := range normalizedChoices {
		if choice == normalizedValue {
			return choice, nil
		}
	}
	return "", fmt.Errorf(invalidChoiceTemplateConstant, value, flagName, strings.Join(normalizedChoices, choiceSeparatorConstant))
}

func normalizeChoices(choices []string) []string {
	normalized := make([]string, 0, len(choices))
	seen := make(map[string]struct{}, len(choices))
	for _, choice := range choices {
		normalizedChoice := strings.ToLower(strings.TrimSpace(choice))
		if len(normalizedChoice) == 0 {
			continue
		}
		if _, exists := seen[normalizedChoice]; exists {
			continue
		}
		seen[normalizedChoice] = struct{}{}
		normalized = append(normalized, normalizedChoice)
	}
	return normalized
}
