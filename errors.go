package analysis

import "fmt"

// Kind classifies the failure modes surfaced to users. Parse and invariant
// errors abort before any analysis runs; UnknownBlock and TypeMismatch abort
// an analysis because they indicate malformed LIR, not a dataflow result.
type Kind int

const (
	Usage Kind = iota
	Parse
	UnknownFunction
	UnknownBlock
	TypeMismatch
)

func (k Kind) String() string {
	switch k {
	case Usage:
		return "usage"
	case Parse:
		return "parse"
	case UnknownFunction:
		return "unknown function"
	case UnknownBlock:
		return "unknown block"
	case TypeMismatch:
		return "type mismatch"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
