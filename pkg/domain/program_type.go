package domain

import derrors "tangible/pkg/domain-errors"

// ProgramType is a domain value that identifies the kind of program a
// campaign sells and an instance runs.
// Invariant: the value must be one of the supported program types.
//
// Usage: construct via ParseProgramType at trust boundaries to enforce
// the allowlist; direct casting bypasses validation.
type ProgramType string

// Supported program types.
const (
	ProgramTypeMentorship ProgramType = "mentorship"
	ProgramTypeLanguage   ProgramType = "language"
	ProgramTypeBuddy      ProgramType = "buddy"
	ProgramTypeUpskilling ProgramType = "upskilling"
	ProgramTypeWEEI       ProgramType = "weei"
)

// validProgramTypes is the single source of truth for valid program types.
var validProgramTypes = map[ProgramType]bool{
	ProgramTypeMentorship: true,
	ProgramTypeLanguage:   true,
	ProgramTypeBuddy:      true,
	ProgramTypeUpskilling: true,
	ProgramTypeWEEI:       true,
}

// ParseProgramType constructs a ProgramType from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or
// unsupported; no other errors are expected.
func ParseProgramType(s string) (ProgramType, error) {
	if s == "" {
		return "", derrors.New(derrors.CodeInvalidInput, "program type cannot be empty")
	}
	p := ProgramType(s)
	if !p.IsValid() {
		return "", derrors.New(derrors.CodeInvalidInput, "invalid program type")
	}
	return p, nil
}

// IsValid checks if the program type is one of the supported enum values.
func (p ProgramType) IsValid() bool {
	return validProgramTypes[p]
}

// IsPairing reports whether the program matches volunteers to
// beneficiaries one-to-one. Pairing programs are the only ones where
// activePairs on an instance is meaningful.
func (p ProgramType) IsPairing() bool {
	return p == ProgramTypeMentorship || p == ProgramTypeBuddy
}

// String returns the string representation of the program type.
func (p ProgramType) String() string {
	return string(p)
}
