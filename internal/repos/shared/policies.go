package shared

// ConfirmationPolicy specifies how destructive operations handle user confirmations.
type ConfirmationPolicy int

const (
	// ConfirmationPrompt indicates the user must be asked.
	ConfirmationPrompt ConfirmationPolicy = iota
	// ConfirmationAssumeYes indicates the operation continues without prompting.
	ConfirmationAssumeYes
)

// ConfirmationPolicyFromBool converts a --yes flag into a policy.
func ConfirmationPolicyFromBool(assumeYes bool) ConfirmationPolicy {
	if assumeYes {
		return ConfirmationAssumeYes
	}
	return ConfirmationPrompt
}

// ShouldPrompt reports whether the user must be prompted.
func (policy ConfirmationPolicy) ShouldPrompt() bool {
	return policy != ConfirmationAssumeYes
}

// FailurePolicy describes how a batch reacts to a failing repository.
type FailurePolicy int

const (
	// FailureIsolate records the failure and continues with the remaining repositories.
	FailureIsolate FailurePolicy = iota
	// FailureAbort stops the batch at the first failure.
	FailureAbort
)

// ContinueAfterFailure reports whether the batch proceeds past a failing repository.
func (policy FailurePolicy) ContinueAfterFailure() bool {
	return policy == FailureIsolate
}
