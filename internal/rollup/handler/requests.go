package handler

import (
	"time"

	"tangible/internal/rollup/models"
)

// logActivityRequest is the boundary shape for appending one entry to
// an instance's activity log.
type logActivityRequest struct {
	Kind       string     `json:"kind"`
	Hours      float64    `json:"hours,omitempty"`
	Credits    float64    `json:"credits,omitempty"`
	OccurredAt *time.Time `json:"occurred_at,omitempty"`
}

type entryResponse struct {
	ID         string    `json:"id"`
	InstanceID string    `json:"instance_id"`
	Kind       string    `json:"kind"`
	Hours      float64   `json:"hours"`
	Credits    float64   `json:"credits"`
	OccurredAt time.Time `json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
}

func toEntryResponse(entry models.ActivityEntry) entryResponse {
	return entryResponse{
		ID:         entry.ID.String(),
		InstanceID: entry.InstanceID.String(),
		Kind:       entry.Kind.String(),
		Hours:      entry.Hours,
		Credits:    entry.Credits,
		OccurredAt: entry.OccurredAt,
		CreatedAt:  entry.CreatedAt,
	}
}

type runResponse struct {
	Status string `json:"status"`
}
