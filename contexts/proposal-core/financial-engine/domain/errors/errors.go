package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnauthorized          = errors.New("caller credential is missing or invalid")
	ErrForbidden             = errors.New("caller is not allowed to generate proposal versions")
	ErrProposalNotFound      = errors.New("proposal not found")
	ErrVersionNotFound       = errors.New("proposal version not found")
	ErrIdempotencyKeyMissing = errors.New("idempotency key is required")
	ErrIdempotencyKeyTaken   = errors.New("idempotency key already committed by a concurrent request")
	ErrInvalidInput          = errors.New("generation input is invalid")

	// Business-rule violations. The symbolic codes attached to these are part
	// of the external contract and must stay stable.
	ErrUndefinedGroup      = errors.New("consumption point does not resolve to a tariff group")
	ErrMixedGroups         = errors.New("consumption points resolve to different tariff groups")
	ErrEstimateNotAccepted = errors.New("estimated precision requires explicit acceptance")
	ErrMissingVariables    = errors.New("required variables are missing")
)

// Code returns the stable symbolic code for a business-rule violation, used
// both in the HTTP contract and in audit entries. Empty for other errors.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrMissingVariables):
		return "missing_required_variables"
	case errors.Is(err, ErrEstimateNotAccepted):
		return "estimativa_not_accepted"
	case errors.Is(err, ErrUndefinedGroup):
		return "grupo_indefinido"
	case errors.Is(err, ErrMixedGroups):
		return "mixed_grupos"
	}
	return ""
}

// MissingVariablesError lists each missing required field by its stable
// symbolic name. It matches ErrMissingVariables under errors.Is.
type MissingVariablesError struct {
	Fields []string
}

func (e *MissingVariablesError) Error() string {
	return fmt.Sprintf("required variables are missing: %s", strings.Join(e.Fields, ", "))
}

func (e *MissingVariablesError) Is(target error) bool {
	return target == ErrMissingVariables
}
