package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/sahilm/fuzzy"
)

const (
	selectionOptionTemplateConstant      = "  %d) %s\n"
	selectionPromptConstant              = "Select [all | none | numbers like 1,3-5 | text]: "
	nonInteractiveNoticeTemplateConstant = "%s: standard input is not a terminal, nothing selected (use --yes to select all)\n"
	progressLineTemplateConstant         = "%s\n"
	selectAllAnswerConstant              = "all"
	selectAllShortAnswerConstant         = "a"
	selectAllWildcardAnswerConstant      = "*"
	selectNoneAnswerConstant             = "none"
	selectNoneShortAnswerConstant        = "n"
	rangeSeparatorConstant               = "-"
	invalidSelectionTemplateConstant     = "%w: %q"
	readAnswerFailedTemplateConstant     = "failed to read selection: %w"
	invalidSelectionMessageConstant      = "invalid selection"
)

// ErrInvalidSelection indicates an answer that refers to no option.
var ErrInvalidSelection = errors.New(invalidSelectionMessageConstant)

// ConsolePresenterOption customizes a ConsolePresenter.
type ConsolePresenterOption func(*ConsolePresenter)

// WithInteractive overrides terminal detection on the input stream.
func WithInteractive(interactive bool) ConsolePresenterOption {
	return func(presenter *ConsolePresenter) {
		presenter.interactive = interactive
	}
}

// ConsolePresenter prints progress lines and prompts for selections on a terminal.
type ConsolePresenter struct {
	reader      *bufio.Reader
	output      io.Writer
	interactive bool
	mutex       sync.Mutex
}

// NewConsolePresenter constructs a presenter reading answers from input and writing to output.
// Selection prompts are only shown when input is a terminal.
func NewConsolePresenter(input io.Reader, output io.Writer, options ...ConsolePresenterOption) *ConsolePresenter {
	if output == nil {
		output = io.Discard
	}
	presenter := &ConsolePresenter{output: output, interactive: isTerminal(input)}
	if input != nil {
		presenter.reader = bufio.NewReader(input)
	}
	for _, option := range options {
		if option != nil {
			option(presenter)
		}
	}
	return presenter
}

// NotifyProgress prints the message on its own line.
func (presenter *ConsolePresenter) NotifyProgress(message string) {
	presenter.mutex.Lock()
	defer presenter.mutex.Unlock()
	fmt.Fprintf(presenter.output, progressLineTemplateConstant, message)
}

// SelectSubset lists the options and reads one answer line. Numbers are 1-based; ranges and comma or space
// separated lists are accepted, and any other word selects the options it fuzzy-matches.
func (presenter *ConsolePresenter) SelectSubset(title string, options []string) ([]int, error) {
	presenter.mutex.Lock()
	defer presenter.mutex.Unlock()

	if len(options) == 0 {
		return nil, nil
	}
	if !presenter.interactive || presenter.reader == nil {
		fmt.Fprintf(presenter.output, nonInteractiveNoticeTemplateConstant, title)
		return nil, nil
	}

	fmt.Fprintln(presenter.output, title)
	for optionIndex, option := range options {
		fmt.Fprintf(presenter.output, selectionOptionTemplateConstant, optionIndex+1, option)
	}
	fmt.Fprint(presenter.output, selectionPromptConstant)

	answer, readError := presenter.reader.ReadString('\n')
	if readError != nil && !errors.Is(readError, io.EOF) {
		return nil, fmt.Errorf(readAnswerFailedTemplateConstant, readError)
	}
	return ParseSelection(answer, options)
}

// ParseSelection converts a selection answer into option indices, preserving the answer's order.
func ParseSelection(answer string, options []string) ([]int, error) {
	trimmedAnswer := strings.ToLower(strings.TrimSpace(answer))
	switch trimmedAnswer {
	case "", selectNoneAnswerConstant, selectNoneShortAnswerConstant:
		return nil, nil
	case selectAllAnswerConstant, selectAllShortAnswerConstant, selectAllWildcardAnswerConstant:
		allIndices := make([]int, len(options))
		for optionIndex := range options {
			allIndices[optionIndex] = optionIndex
		}
		return allIndices, nil
	}

	tokens := strings.FieldsFunc(trimmedAnswer, func(character rune) bool {
		return character == ',' || character == ' ' || character == '\t'
	})

	selectedIndices := []int{}
	seenIndices := map[int]struct{}{}
	appendIndex := func(optionIndex int) {
		if _, seen := seenIndices[optionIndex]; seen {
			return
		}
		seenIndices[optionIndex] = struct{}{}
		selectedIndices = append(selectedIndices, optionIndex)
	}

	for _, token := range tokens {
		tokenIndices, tokenError := resolveSelectionToken(token, options)
		if tokenError != nil {
			return nil, tokenError
		}
		for _, optionIndex := range tokenIndices {
			appendIndex(optionIndex)
		}
	}
	return selectedIndices, nil
}

func resolveSelectionToken(token string, options []string) ([]int, error) {
	if number, numberError := strconv.Atoi(token); numberError == nil {
		if number < 1 || number > len(options) {
			return nil, fmt.Errorf(invalidSelectionTemplateConstant, ErrInvalidSelection, token)
		}
		return []int{number - 1}, nil
	}

	if rangeStart, rangeEnd, isRange := strings.Cut(token, rangeSeparatorConstant); isRange {
		startNumber, startError := strconv.Atoi(rangeStart)
		endNumber, endError := strconv.Atoi(rangeEnd)
		if startError == nil && endError == nil {
			if startNumber < 1 || endNumber > len(options) || startNumber > endNumber {
				return nil, fmt.Errorf(invalidSelectionTemplateConstant, ErrInvalidSelection, token)
			}
			rangeIndices := make([]int, 0, endNumber-startNumber+1)
			for number := startNumber; number <= endNumber; number++ {
				rangeIndices = append(rangeIndices, number-1)
			}
			return rangeIndices, nil
		}
	}

	matches := fuzzy.Find(token, options)
	if len(matches) == 0 {
		return nil, fmt.Errorf(invalidSelectionTemplateConstant, ErrInvalidSelection, token)
	}
	matchedIndices := make([]int, 0, len(matches))
	for _, match := range matches {
		matchedIndices = append(matchedIndices, match.Index)
	}
	return matchedIndices, nil
}

func isTerminal(input io.Reader) bool {
	file, isFile := input.(*os.File)
	if !isFile {
		return input != nil
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
