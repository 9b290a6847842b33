package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	id "tangible/pkg/domain"
	derrors "tangible/pkg/domain-errors"
)

// SourceType labels where an evidence snippet came from.
type SourceType string

const (
	SourceSurvey     SourceType = "survey"
	SourceFeedback   SourceType = "feedback"
	SourceInterview  SourceType = "interview"
	SourceSessionLog SourceType = "session_log"
)

var validSourceTypes = map[SourceType]bool{
	SourceSurvey:     true,
	SourceFeedback:   true,
	SourceInterview:  true,
	SourceSessionLog: true,
}

// ParseSourceType constructs a SourceType from external input.
func ParseSourceType(s string) (SourceType, error) {
	if s == "" {
		return "", derrors.New(derrors.CodeInvalidInput, "source type cannot be empty")
	}
	st := SourceType(s)
	if !validSourceTypes[st] {
		return "", derrors.New(derrors.CodeInvalidInput, "invalid source type")
	}
	return st, nil
}

// IsValid checks if the source type is one of the supported enum values.
func (s SourceType) IsValid() bool { return validSourceTypes[s] }

// String returns the string representation.
func (s SourceType) String() string { return string(s) }

// EvidenceSnippet is an anonymized feedback or survey fragment.
// Immutable once created; SnippetHash is the dedup key, and stores
// reject duplicates rather than overwrite. ParticipantRef is an
// internal identifier only, never PII.
type EvidenceSnippet struct {
	SnippetHash    string
	SourceType     SourceType
	ProgramType    id.ProgramType
	SubmittedAt    time.Time
	Cohort         *string
	ParticipantRef *string
}

// HashContent derives the dedup key from raw snippet text. The raw
// text itself is never stored in the core.
func HashContent(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// NewEvidenceSnippet builds an immutable snippet record.
func NewEvidenceSnippet(hash string, source SourceType, program id.ProgramType, submittedAt time.Time, cohort, participantRef *string) (*EvidenceSnippet, error) {
	if hash == "" {
		return nil, derrors.New(derrors.CodeInvariantViolation, "snippet_hash cannot be empty")
	}
	if !source.IsValid() {
		return nil, derrors.New(derrors.CodeInvariantViolation, "invalid source type")
	}
	if !program.IsValid() {
		return nil, derrors.New(derrors.CodeInvariantViolation, "invalid program type")
	}
	if submittedAt.IsZero() {
		return nil, derrors.New(derrors.CodeInvariantViolation, "submitted_at is required")
	}

	return &EvidenceSnippet{
		SnippetHash:    hash,
		SourceType:     source,
		ProgramType:    program,
		SubmittedAt:    submittedAt,
		Cohort:         cohort,
		ParticipantRef: participantRef,
	}, nil
}
