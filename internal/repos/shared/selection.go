package shared

import (
	"errors"
	"fmt"
)

const (
	presenterNotConfiguredMessageConstant = "presenter not configured for interactive selection"
	selectionFailedTemplateConstant       = "selection failed: %w"
)

// ErrPresenterNotConfigured indicates interactive selection was requested without a presenter.
var ErrPresenterNotConfigured = errors.New(presenterNotConfiguredMessageConstant)

// SelectionPolicy specifies how candidates are chosen before a bulk operation.
type SelectionPolicy int

const (
	// SelectionPrompt asks the presenter for a subset.
	SelectionPrompt SelectionPolicy = iota
	// SelectionAutomatic takes every candidate without prompting.
	SelectionAutomatic
)

// SelectionPolicyFromBool converts the automatic flag into a policy.
func SelectionPolicyFromBool(automatic bool) SelectionPolicy {
	if automatic {
		return SelectionAutomatic
	}
	return SelectionPrompt
}

// ShouldPrompt reports whether the presenter must be consulted.
func (policy SelectionPolicy) ShouldPrompt() bool {
	return policy != SelectionAutomatic
}

// SelectIndices resolves the indices of the chosen options. Indices returned by the presenter that are out of
// range or repeated are dropped; the remaining order is preserved.
func SelectIndices(policy SelectionPolicy, presenter Presenter, title string, options []string) ([]int, error) {
	if len(options) == 0 {
		return nil, nil
	}

	if !policy.ShouldPrompt() {
		allIndices := make([]int, len(options))
		for optionIndex := range options {
			allIndices[optionIndex] = optionIndex
		}
		return allIndices, nil
	}

	if presenter == nil {
		return nil, ErrPresenterNotConfigured
	}

	chosenIndices, selectionError := presenter.SelectSubset(title, options)
	if selectionError != nil {
		return nil, fmt.Errorf(selectionFailedTemplateConstant, selectionError)
	}

	seenIndices := make(map[int]struct{}, len(chosenIndices))
	validIndices := make([]int, 0, len(chosenIndices))
	for _, chosenIndex := range chosenIndices {
		if chosenIndex < 0 || chosenIndex >= len(options) {
			continue
		}
		if _, alreadySeen := seenIndices[chosenIndex]; alreadySeen {
			continue
		}
		seenIndices[chosenIndex] = struct{}{}
		validIndices = append(validIndices, chosenIndex)
	}
	return validIndices, nil
}
