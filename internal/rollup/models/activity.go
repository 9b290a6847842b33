// Package models defines the activity log entry, the immutable fact
// stream the rollup job re-derives instance counters from.
package models

import (
	"time"

	id "tangible/pkg/domain"
	derrors "tangible/pkg/domain-errors"
)

// ActivityKind classifies one activity log entry.
type ActivityKind string

const (
	ActivitySessionHeld       ActivityKind = "session_held"
	ActivityVolunteerJoined   ActivityKind = "volunteer_joined"
	ActivityBeneficiaryJoined ActivityKind = "beneficiary_joined"
	ActivityCreditConsumed    ActivityKind = "credit_consumed"
	ActivityLearnerServed     ActivityKind = "learner_served"
)

var validActivityKinds = map[ActivityKind]bool{
	ActivitySessionHeld:       true,
	ActivityVolunteerJoined:   true,
	ActivityBeneficiaryJoined: true,
	ActivityCreditConsumed:    true,
	ActivityLearnerServed:     true,
}

// ParseActivityKind constructs an ActivityKind from external input.
func ParseActivityKind(s string) (ActivityKind, error) {
	if s == "" {
		return "", derrors.New(derrors.CodeInvalidInput, "activity kind cannot be empty")
	}
	k := ActivityKind(s)
	if !k.IsValid() {
		return "", derrors.New(derrors.CodeInvalidInput, "invalid activity kind")
	}
	return k, nil
}

// IsValid checks if the kind is one of the supported enum values.
func (k ActivityKind) IsValid() bool { return validActivityKinds[k] }

// String returns the string representation of the kind.
func (k ActivityKind) String() string { return string(k) }

// ActivityEntry is one immutable fact in an instance's activity log.
// Hours is only meaningful for session_held entries, Credits only for
// credit_consumed entries.
type ActivityEntry struct {
	ID         id.ActivityEntryID
	InstanceID id.InstanceID
	Kind       ActivityKind
	Hours      float64
	Credits    float64
	OccurredAt time.Time
	CreatedAt  time.Time
}

// NewActivityEntry validates and builds a log entry. Negative hours or
// credits are rejected; the log is append-only and corrections happen
// through compensating entries, not negatives.
func NewActivityEntry(instanceID id.InstanceID, kind ActivityKind, hours, credits float64, occurredAt, now time.Time) (*ActivityEntry, error) {
	if instanceID.IsNil() {
		return nil, derrors.New(derrors.CodeInvariantViolation, "instance_id is required")
	}
	if !kind.IsValid() {
		return nil, derrors.New(derrors.CodeInvariantViolation, "invalid activity kind")
	}
	if hours < 0 {
		return nil, derrors.New(derrors.CodeInvariantViolation, "hours cannot be negative")
	}
	if credits < 0 {
		return nil, derrors.New(derrors.CodeInvariantViolation, "credits cannot be negative")
	}
	if occurredAt.IsZero() {
		occurredAt = now
	}
	return &ActivityEntry{
		ID:         id.NewActivityEntryID(),
		InstanceID: instanceID,
		Kind:       kind,
		Hours:      hours,
		Credits:    credits,
		OccurredAt: occurredAt,
		CreatedAt:  now,
	}, nil
}
