package errors

import (
	"errors"
	"fmt"
	"strings"
)

const (
	configErrorMessageConstant          = "configuration error"
	networkErrorMessageConstant         = "remote unreachable"
	refNotFoundMessageConstant          = "reference not found"
	syncConflictMessageConstant         = "fast-forward not possible"
	linkConflictMessageConstant         = "path occupied"
	notFoundMessageConstant             = "not found"
	notInWorkspaceMessageConstant       = "not in workspace"
	usageErrorMessageConstant           = "invalid usage"
	operationErrorSubjectSeparator      = "/"
	operationErrorTemplateConstant      = "%s %s: %s"
	operationErrorCauseTemplateConstant = "%s %s: %s: %v"
	batchErrorTemplateConstant          = "%s failed for %d of %d repositories"
	unknownSubjectConstant              = "workspace"
)

// Kind sentinels classify failures; match them with errors.Is.
var (
	ErrConfig         = errors.New(configErrorMessageConstant)
	ErrNetwork        = errors.New(networkErrorMessageConstant)
	ErrRefNotFound    = errors.New(refNotFoundMessageConstant)
	ErrSyncConflict   = errors.New(syncConflictMessageConstant)
	ErrLinkConflict   = errors.New(linkConflictMessageConstant)
	ErrNotFound       = errors.New(notFoundMessageConstant)
	ErrNotInWorkspace = errors.New(notInWorkspaceMessageConstant)
	ErrUsage          = errors.New(usageErrorMessageConstant)
)

// Operation names the step that failed.
type Operation string

// Operations reported in errors.
const (
	OperationResolve   Operation = "resolve"
	OperationStore     Operation = "store"
	OperationClone     Operation = "clone"
	OperationFetch     Operation = "fetch"
	OperationLink      Operation = "link"
	OperationPin       Operation = "pin"
	OperationUnlink    Operation = "unlink"
	OperationSync      Operation = "sync"
	OperationSwitch    Operation = "switch"
	OperationClean     Operation = "clean"
	OperationRepair    Operation = "repair"
	OperationStatus    Operation = "status"
	OperationForeach   Operation = "foreach"
	OperationImport    Operation = "import"
	OperationInspect   Operation = "inspect"
	OperationListing   Operation = "list"
	OperationLocate    Operation = "locate"
	OperationConfigure Operation = "configure"
)

// OperationError records which workspace, repository and operation failed, the kind of failure and the
// collaborator's error text.
type OperationError struct {
	Kind       error
	Workspace  string
	Repository string
	Operation  Operation
	Message    string
	Cause      error
}

// Error renders "<subject> <operation>: <kind or message>[: cause]".
func (operationError OperationError) Error() string {
	description := operationError.Message
	if len(description) == 0 && operationError.Kind != nil {
		description = operationError.Kind.Error()
	}
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorTemplateConstant, operationError.subject(), operationError.Operation, description)
	}
	if len(description) == 0 {
		return fmt.Sprintf(operationErrorTemplateConstant, operationError.subject(), operationError.Operation, operationError.Cause)
	}
	return fmt.Sprintf(operationErrorCauseTemplateConstant, operationError.subject(), operationError.Operation, description, operationError.Cause)
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (operationError OperationError) Unwrap() []error {
	unwrapped := make([]error, 0, 2)
	if operationError.Kind != nil {
		unwrapped = append(unwrapped, operationError.Kind)
	}
	if operationError.Cause != nil {
		unwrapped = append(unwrapped, operationError.Cause)
	}
	return unwrapped
}

func (operationError OperationError) subject() string {
	subjectParts := make([]string, 0, 2)
	if trimmed := strings.TrimSpace(operationError.Workspace); len(trimmed) > 0 {
		subjectParts = append(subjectParts, trimmed)
	}
	if trimmed := strings.TrimSpace(operationError.Repository); len(trimmed) > 0 {
		subjectParts = append(subjectParts, trimmed)
	}
	if len(subjectParts) == 0 {
		return unknownSubjectConstant
	}
	return strings.Join(subjectParts, operationErrorSubjectSeparator)
}

// Wrap builds an OperationError of the given kind.
func Wrap(kind error, workspaceName string, repositoryName string, operation Operation, message string, cause error) error {
	return OperationError{
		Kind:       kind,
		Workspace:  workspaceName,
		Repository: repositoryName,
		Operation:  operation,
		Message:    message,
		Cause:      cause,
	}
}

// NewConfigError reports malformed or unreadable configuration input.
func NewConfigError(workspaceName string, operation Operation, message string, cause error) error {
	return Wrap(ErrConfig, workspaceName, "", operation, message, cause)
}

// NewNetworkError reports an unreachable remote for one repository.
func NewNetworkError(repositoryName string, operation Operation, cause error) error {
	return Wrap(ErrNetwork, "", repositoryName, operation, "", cause)
}

// NewRefNotFoundError reports a branch or reference that could not be resolved.
func NewRefNotFoundError(workspaceName string, repositoryName string, reference string, cause error) error {
	return Wrap(ErrRefNotFound, workspaceName, repositoryName, OperationLink, refNotFoundMessageConstant+" "+reference, cause)
}

// NewSyncConflictError reports a checkout that cannot be fast-forwarded.
func NewSyncConflictError(workspaceName string, repositoryName string, message string, cause error) error {
	return Wrap(ErrSyncConflict, workspaceName, repositoryName, OperationSync, message, cause)
}

// NewLinkConflictError reports a checkout path occupied by something that is not a checkout.
func NewLinkConflictError(workspaceName string, repositoryName string, path string) error {
	return Wrap(ErrLinkConflict, workspaceName, repositoryName, OperationLink, linkConflictMessageConstant+" "+path, nil)
}

// NewNotFoundError reports an unknown workspace, repository or file.
func NewNotFoundError(workspaceName string, repositoryName string, operation Operation, message string) error {
	return Wrap(ErrNotFound, workspaceName, repositoryName, operation, message, nil)
}

// NewNotInWorkspaceError reports a command that requires a workspace context run outside one.
func NewNotInWorkspaceError(workingDirectory string) error {
	return Wrap(ErrNotInWorkspace, "", "", OperationLocate, notInWorkspaceMessageConstant+": "+workingDirectory, nil)
}

// NewUsageError reports invalid command-line usage.
func NewUsageError(cause error) error {
	return Wrap(ErrUsage, "", "", OperationConfigure, "", cause)
}

// BatchError summarizes per-repository failures of a batch operation.
type BatchError struct {
	Operation Operation
	Total     int
	Failures  []error
}

// Error reports how many repositories failed.
func (batchError BatchError) Error() string {
	return fmt.Sprintf(batchErrorTemplateConstant, batchError.Operation, len(batchError.Failures), batchError.Total)
}

// Unwrap exposes every failure so errors.Is matches any of their kinds.
func (batchError BatchError) Unwrap() []error {
	return batchError.Failures
}
