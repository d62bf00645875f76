// Package errors defines the failure taxonomy of a resolution attempt.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind classifies why an attempt failed.
type Kind int

const (
	KindUnknown Kind = iota
	KindInput
	KindResource
	KindTransmit
	KindUnreachable
	KindTimeout
	KindExhausted
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindResource:
		return "resource"
	case KindTransmit:
		return "transmit"
	case KindUnreachable:
		return "unreachable"
	case KindTimeout:
		return "timeout"
	case KindExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// ResolveError provides an operator-facing message with context and hints.
type ResolveError struct {
	Kind    Kind
	Message string
	Reason  string
	Hint    string
	Err     error
}

func (e *ResolveError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Message)
	if e.Reason != "" {
		buf.WriteString("\n  Reason: " + e.Reason)
	}
	if e.Hint != "" {
		buf.WriteString("\n  Hint: " + e.Hint)
	}
	if e.Err != nil {
		buf.WriteString("\n  Details: " + e.Err.Error())
	}
	return buf.String()
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the first ResolveError in err's chain.
func KindOf(err error) Kind {
	var re *ResolveError
	if stderrors.As(err, &re) {
		return re.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Input reports an unparsable target.
func Input(target string, err error) error {
	return &ResolveError{
		Kind:    KindInput,
		Message: fmt.Sprintf("Invalid target address %q", target),
		Reason:  "target must be a dotted-decimal IPv4 address",
		Err:     err,
	}
}

// Resource reports a socket creation or configuration failure.
func Resource(op string, err error) error {
	e := &ResolveError{
		Kind:    KindResource,
		Message: fmt.Sprintf("Failed to %s", op),
		Reason:  extractResourceReason(err),
		Err:     err,
	}
	if IsPermission(err) {
		e.Hint = "raw sockets require root or CAP_NET_RAW; try: sudo getmac <ip>"
	}
	return e
}

// Transmit reports a failed or timed-out Echo Request send.
func Transmit(target string, timedOut bool, err error) error {
	reason := "send failed"
	if timedOut {
		reason = "send timed out"
	}
	return &ResolveError{
		Kind:    KindTransmit,
		Message: fmt.Sprintf("Failed to send echo request to %s", target),
		Reason:  reason,
		Err:     err,
	}
}

// Unreachable reports an authoritative negative ICMP answer from the target.
func Unreachable(target, icmpType string) error {
	return &ResolveError{
		Kind:    KindUnreachable,
		Message: fmt.Sprintf("Host %s unreachable", target),
		Reason:  fmt.Sprintf("received ICMP %s", icmpType),
	}
}

// Timeout reports that no qualifying reply arrived before the deadline.
func Timeout(target string, frames int, err error) error {
	return &ResolveError{
		Kind:    KindTimeout,
		Message: fmt.Sprintf("No echo reply from %s", target),
		Reason:  fmt.Sprintf("receive deadline elapsed after %d frames", frames),
		Hint:    "the host may be down, filtering ICMP, or not on the local segment",
		Err:     err,
	}
}

// Exhausted reports that the frame cap was reached without a match.
func Exhausted(target string, frames int) error {
	return &ResolveError{
		Kind:    KindExhausted,
		Message: fmt.Sprintf("No echo reply from %s", target),
		Reason:  fmt.Sprintf("maximum number of frames reached (%d)", frames),
		Hint:    "too much unrelated traffic; raise --max-frames or enable --kernel-filter",
	}
}

func extractResourceReason(err error) string {
	if err == nil {
		return ""
	}
	if IsPermission(err) {
		return "operation not permitted"
	}
	errStr := err.Error()
	if strings.Contains(errStr, "no such network interface") || strings.Contains(errStr, "no such device") {
		return "capture interface does not exist"
	}
	return "socket setup failed"
}
