package configstore

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	repoerrors "github.com/temirov/workspace/internal/repos/errors"
	"github.com/temirov/workspace/internal/repos/shared"
)

const (
	legacyCommentPrefixConstant           = "#"
	legacyMaximumFieldCountConstant       = 3
	legacyTooManyFieldsTemplateConstant   = "expected \"url [branch] [ref]\", found %d fields"
	lineErrorTemplateConstant             = "line %d: %s"
	lineErrorWithSourceTemplateConstant   = "%s:%d: %s"
	legacyReadErrorTemplateConstant       = "unable to read %s"
	legacyScannerInitialBufferConstant    = 4096
	legacyScannerMaximumTokenSizeConstant = 1024 * 1024
)

// LineKind classifies a decoded legacy line.
type LineKind int

const (
	// LineSkip is a blank or comment line.
	LineSkip LineKind = iota
	// LineSpec is a repository entry.
	LineSpec
	// LineError is a malformed entry.
	LineError
)

// LineDecodeError describes a malformed legacy line.
type LineDecodeError struct {
	Source     string
	LineNumber int
	Message    string
}

// Error renders the source position and problem.
func (decodeError LineDecodeError) Error() string {
	if len(decodeError.Source) == 0 {
		return fmt.Sprintf(lineErrorTemplateConstant, decodeError.LineNumber, decodeError.Message)
	}
	return fmt.Sprintf(lineErrorWithSourceTemplateConstant, decodeError.Source, decodeError.LineNumber, decodeError.Message)
}

// DecodedLine is the tagged result of decoding one legacy line. Spec is set for LineSpec, Err for LineError.
type DecodedLine struct {
	Kind LineKind
	Spec shared.RepositorySpec
	Err  error
}

// DecodeLine decodes one "url [branch] [ref]" line. It never panics; malformed input yields LineError
// carrying a ConfigError.
func DecodeLine(lineNumber int, text string) DecodedLine {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) == 0 || strings.HasPrefix(trimmed, legacyCommentPrefixConstant) {
		return DecodedLine{Kind: LineSkip}
	}

	fields := strings.Fields(trimmed)
	if len(fields) > legacyMaximumFieldCountConstant {
		return lineFailure(lineNumber, fmt.Sprintf(legacyTooManyFieldsTemplateConstant, len(fields)))
	}
	for len(fields) < legacyMaximumFieldCountConstant {
		fields = append(fields, "")
	}

	spec, specError := shared.NewRepositorySpec(fields[0], fields[1], fields[2])
	if specError != nil {
		return lineFailure(lineNumber, specError.Error())
	}
	return DecodedLine{Kind: LineSpec, Spec: spec}
}

func lineFailure(lineNumber int, message string) DecodedLine {
	return DecodedLine{
		Kind: LineError,
		Err:  repoerrors.NewConfigError("", repoerrors.OperationResolve, "", LineDecodeError{LineNumber: lineNumber, Message: message}),
	}
}

// ParseLegacy decodes every line of source. The first malformed line aborts with a ConfigError naming
// sourceName and the line number.
func ParseLegacy(sourceName string, source io.Reader) ([]shared.RepositorySpec, error) {
	scanner := bufio.NewScanner(source)
	scanner.Buffer(make([]byte, 0, legacyScannerInitialBufferConstant), legacyScannerMaximumTokenSizeConstant)

	var specs []shared.RepositorySpec
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		decoded := DecodeLine(lineNumber, scanner.Text())
		switch decoded.Kind {
		case LineSkip:
			continue
		case LineSpec:
			specs = append(specs, decoded.Spec)
		case LineError:
			return nil, withSource(decoded.Err, sourceName)
		}
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, repoerrors.NewConfigError("", repoerrors.OperationResolve, fmt.Sprintf(legacyReadErrorTemplateConstant, sourceName), scanError)
	}
	return specs, nil
}

func withSource(decodeFailure error, sourceName string) error {
	operationError, isOperationError := decodeFailure.(repoerrors.OperationError)
	if !isOperationError {
		return decodeFailure
	}
	lineError, isLineError := operationError.Cause.(LineDecodeError)
	if !isLineError {
		return decodeFailure
	}
	lineError.Source = sourceName
	operationError.Cause = lineError
	return operationError
}
