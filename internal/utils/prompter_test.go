package utils_test

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/workspace/internal/utils"
)

const (
	testPromptTextConstant = "Delete workspace: feature? [y/N] "
)

func TestIOConfirmationPrompterInterpretsResponses(testInstance *testing.T) {
	testCases := []struct {
		name              string
		input             string
		expectedConfirmed bool
	}{
		{name: "short_yes", input: "y\n", expectedConfirmed: true},
		{name: "long_yes_mixed_case", input: "  YeS \n", expectedConfirmed: true},
		{name: "no", input: "n\n", expectedConfirmed: false},
		{name: "empty_line", input: "\n", expectedConfirmed: false},
		{name: "end_of_input", input: "", expectedConfirmed: false},
		{name: "yes_without_newline", input: "yes", expectedConfirmed: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			var output bytes.Buffer
			prompter := utils.NewIOConfirmationPrompter(strings.NewReader(testCase.input), &output)

			result, confirmError := prompter.Confirm(testPromptTextConstant)
			require.NoError(testInstance, confirmError)
			require.Equal(testInstance, testCase.expectedConfirmed, result.Confirmed)
			require.Equal(testInstance, testPromptTextConstant, output.String())
		})
	}
}

func TestNewConfirmationPrompterFallsBackWithoutTerminal(testInstance *testing.T) {
	inputFile, inputError := os.CreateTemp(testInstance.TempDir(), "input")
	require.NoError(testInstance, inputError)
	defer inputFile.Close()

	require.False(testInstance, utils.IsTerminal(inputFile))
	require.False(testInstance, utils.IsTerminal(nil))

	prompter := utils.NewConfirmationPrompter(inputFile, inputFile)
	require.IsType(testInstance, &utils.IOConfirmationPrompter{}, prompter)
}
