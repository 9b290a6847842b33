package audit

import (
	"time"

	id "tangible/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance.
	// These require tamper-proof storage and long retention.
	// Examples: campaign transitions, pack generation, archival.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers events useful for debugging and
	// operational visibility. These can be sampled with shorter retention.
	// Examples: rollup runs, instance updates, consumption alerts.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	CompanyID id.CompanyID
	// Subject is the entity acted on, e.g. a campaign or pack id.
	Subject string
	Action  string
	// Reason carries the operator-supplied transition reason when present.
	Reason string
	// Decision is the outcome of the action (e.g. "completed", "failed").
	Decision string
	// RequestID is the correlation id from HTTP request context.
	RequestID string
	// ActorID tracks who performed the action.
	ActorID string
}

type AuditEvent string

const (
	// Campaign events
	EventCampaignCreated      AuditEvent = "campaign_created"
	EventCampaignTransitioned AuditEvent = "campaign_transitioned"
	EventCampaignArchived     AuditEvent = "campaign_archived"

	// Program instance events
	EventInstanceCreated      AuditEvent = "instance_created"
	EventInstanceTransitioned AuditEvent = "instance_transitioned"
	EventInstanceCascaded     AuditEvent = "instance_cascaded"

	// Disclosure events
	EventPackRequested AuditEvent = "pack_requested"
	EventPackGenerated AuditEvent = "pack_generated"
	EventPackFailed    AuditEvent = "pack_generation_failed"

	// Rollup events
	EventRollupCompleted   AuditEvent = "rollup_completed"
	EventConsumptionAlert  AuditEvent = "consumption_alert"
	EventEvidenceIngested  AuditEvent = "evidence_ingested"
	EventOutcomeScoreAdded AuditEvent = "outcome_score_added"
)

// eventCategories maps each audit event to its category.
// Compliance: regulatory significance, long retention required.
// Operations: debugging, operational visibility, can be sampled.
var eventCategories = map[AuditEvent]EventCategory{
	EventCampaignCreated:      CategoryCompliance,
	EventCampaignTransitioned: CategoryCompliance,
	EventCampaignArchived:     CategoryCompliance,
	EventInstanceTransitioned: CategoryCompliance,
	EventInstanceCascaded:     CategoryCompliance,
	EventPackRequested:        CategoryCompliance,
	EventPackGenerated:        CategoryCompliance,
	EventPackFailed:           CategoryCompliance,

	EventInstanceCreated:      CategoryOperations,
	EventRollupCompleted:      CategoryOperations,
	EventConsumptionAlert:     CategoryOperations,
	EventEvidenceIngested:     CategoryOperations,
	EventOutcomeScoreAdded:    CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
