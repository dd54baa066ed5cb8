package utils

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/mattn/go-isatty"

	"github.com/temirov/workspace/internal/repos/shared"
)

const (
	confirmationYesShortConstant   = "y"
	confirmationYesLongConstant    = "yes"
	confirmationHintSuffixConstant = "[y/N]"
	confirmationLineDelimiterByte  = '\n'
)

// IOConfirmationPrompter reads confirmation responses from an io.Reader.
type IOConfirmationPrompter struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewIOConfirmationPrompter constructs a prompter from the provided reader and writer.
func NewIOConfirmationPrompter(input io.Reader, output io.Writer) *IOConfirmationPrompter {
	return &IOConfirmationPrompter{reader: bufio.NewReader(input), writer: output}
}

// Confirm writes the prompt and interprets affirmative responses (y/yes). End of input declines.
func (prompter *IOConfirmationPrompter) Confirm(prompt string) (shared.ConfirmationResult, error) {
	if prompter.writer != nil {
		if _, writeError := io.WriteString(prompter.writer, prompt); writeError != nil {
			return shared.ConfirmationResult{}, writeError
		}
	}

	response, readError := prompter.reader.ReadString(confirmationLineDelimiterByte)
	if readError != nil && !errors.Is(readError, io.EOF) {
		return shared.ConfirmationResult{}, readError
	}

	switch strings.TrimSpace(strings.ToLower(response)) {
	case confirmationYesShortConstant, confirmationYesLongConstant:
		return shared.ConfirmationResult{Confirmed: true}, nil
	default:
		return shared.ConfirmationResult{}, nil
	}
}

// SurveyConfirmationPrompter asks through an interactive survey.Confirm widget.
type SurveyConfirmationPrompter struct {
	input  terminal.FileReader
	output terminal.FileWriter
}

// NewSurveyConfirmationPrompter constructs a prompter bound to the given terminal streams.
func NewSurveyConfirmationPrompter(input terminal.FileReader, output terminal.FileWriter) *SurveyConfirmationPrompter {
	return &SurveyConfirmationPrompter{input: input, output: output}
}

// Confirm shows the prompt without its textual [y/N] hint, which survey renders itself.
// An interrupt declines.
func (prompter *SurveyConfirmationPrompter) Confirm(prompt string) (shared.ConfirmationResult, error) {
	message := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(prompt), confirmationHintSuffixConstant))
	confirmed := false
	askError := survey.AskOne(
		&survey.Confirm{Message: message, Default: false},
		&confirmed,
		survey.WithStdio(prompter.input, prompter.output, prompter.output),
	)
	if errors.Is(askError, terminal.InterruptErr) {
		return shared.ConfirmationResult{}, nil
	}
	if askError != nil {
		return shared.ConfirmationResult{}, askError
	}
	return shared.ConfirmationResult{Confirmed: confirmed}, nil
}

// NewConfirmationPrompter picks the interactive prompter when both streams are terminals
// and the line-based one otherwise.
func NewConfirmationPrompter(input *os.File, output *os.File) shared.ConfirmationPrompter {
	if IsTerminal(input) && IsTerminal(output) {
		return NewSurveyConfirmationPrompter(input, output)
	}
	return NewIOConfirmationPrompter(input, output)
}

// IsTerminal reports whether file is attached to a terminal.
func IsTerminal(file *os.File) bool {
	if file == nil {
		return false
	}
	descriptor := file.Fd()
	return isatty.IsTerminal(descriptor) || isatty.IsCygwinTerminal(descriptor)
}
