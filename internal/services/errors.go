package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConnectivity marks failures detected before a generation is admitted:
	// the image backend is unreachable or the selected language-model provider
	// has no usable credential.
	ErrConnectivity = errors.New("connectivity error")
	// ErrConfiguration marks invalid or missing configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrGraphTemplate marks a workflow template authoring problem, such as a
	// missing required marker node. Not transient; never retried.
	ErrGraphTemplate = errors.New("workflow template error")
	// ErrExternalService marks submit/download failures against a backend.
	ErrExternalService = errors.New("external service error")
	// ErrTimeout marks the artifact-polling timeout. It is its own kind
	// because the recovery hint differs: the backend likely crashed or ran
	// out of memory.
	ErrTimeout = errors.New("timeout")
	// ErrBusy marks a request rejected because a generation is in flight.
	ErrBusy = errors.New("generation already in progress")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrExternalService
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
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
