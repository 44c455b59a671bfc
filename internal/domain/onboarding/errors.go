package onboarding

import "errors"

// Errors returned by the onboarding flow.
var (
	ErrMissingCredential   = errors.New("missing credential")
	ErrMalformedCredential = errors.New("malformed credential")
	ErrUnknownField        = errors.New("unknown field")
	ErrFieldKind           = errors.New("update kind does not match field")
	ErrInvalidOption       = errors.New("invalid option")
	ErrProfileRequired     = errors.New("profile is required")
	ErrSkipNotAllowed      = errors.New("identity step cannot be skipped")
	ErrNotOnForm           = errors.New("submission is only accepted from the form step")
	ErrAlreadySubmitted    = errors.New("form is locked after submission")
	ErrValidation          = errors.New("form has validation errors")
)

// ValidationError carries the ErrorMap that blocked a submission.
type ValidationError struct {
	Errors ErrorMap
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error()
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
