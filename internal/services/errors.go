package services

import (
	"errors"
	"fmt"
	"strings"
)

// Error markers. Every failure that reaches a user-facing entry point is tagged
// with exactly one of them.
var (
	ErrAuthentication = errors.New("authentication failed")
	ErrQuery          = errors.New("session query failed")
	ErrCancel         = errors.New("cancel failed")
	ErrPreparation    = errors.New("preparation warning")
	ErrTransport      = errors.New("transport failed")
	ErrInfoMissing    = errors.New("information missing")
	ErrConfiguration  = errors.New("configuration error")
)

// Kind is the coarse classification surfaced to the user.
type Kind string

const (
	KindNone           Kind = ""
	KindAuthentication Kind = "authentication-failed"
	KindQuery          Kind = "query-failed"
	KindCancel         Kind = "cancel-failed"
	KindPreparation    Kind = "preparation-warning"
	KindTransport      Kind = "transport-failed"
	KindInfoMissing    Kind = "info-missing"
	KindConfiguration  Kind = "configuration"
	KindGeneric        Kind = "error"
)

// Transient reports whether alerts of this kind clear themselves after the
// configured window.
func (k Kind) Transient() bool {
	return k == KindCancel || k == KindInfoMissing
}

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransport
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// KindOf maps any error onto the user-facing taxonomy. Untagged errors are
// generic.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrAuthentication):
		return KindAuthentication
	case errors.Is(err, ErrQuery):
		return KindQuery
	case errors.Is(err, ErrCancel):
		return KindCancel
	case errors.Is(err, ErrPreparation):
		return KindPreparation
	case errors.Is(err, ErrTransport):
		return KindTransport
	case errors.Is(err, ErrInfoMissing):
		return KindInfoMissing
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	default:
		return KindGeneric
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
