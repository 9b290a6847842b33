// Package domain holds shared domain value types: typed identifiers and
// the enums that cross module boundaries (program types, pricing models,
// outcome dimensions).
//
// Typed IDs prevent cross-entity assignment at compile time. Construct
// them via the Parse functions at trust boundaries; direct conversion
// bypasses validation.
package domain

import (
	"github.com/google/uuid"

	derrors "tangible/pkg/domain-errors"
)

// Typed identifiers for the core entities.
type (
	CampaignID         uuid.UUID
	InstanceID         uuid.UUID
	CompanyID          uuid.UUID
	ProgramTemplateID  uuid.UUID
	BeneficiaryGroupID uuid.UUID
	OutcomeScoreID     uuid.UUID
	PackID             uuid.UUID
	ActivityEntryID    uuid.UUID
)

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, derrors.Newf(derrors.CodeInvalidInput, "%s cannot be empty", what)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, derrors.Newf(derrors.CodeInvalidInput, "%s must be a valid UUID", what)
	}
	if u == uuid.Nil {
		return uuid.Nil, derrors.Newf(derrors.CodeInvalidInput, "%s cannot be the nil UUID", what)
	}
	return u, nil
}

// ParseCampaignID validates and constructs a CampaignID from external input.
func ParseCampaignID(s string) (CampaignID, error) {
	u, err := parseUUID(s, "campaign_id")
	return CampaignID(u), err
}

// ParseInstanceID validates and constructs an InstanceID from external input.
func ParseInstanceID(s string) (InstanceID, error) {
	u, err := parseUUID(s, "instance_id")
	return InstanceID(u), err
}

// ParseCompanyID validates and constructs a CompanyID from external input.
func ParseCompanyID(s string) (CompanyID, error) {
	u, err := parseUUID(s, "company_id")
	return CompanyID(u), err
}

// ParseProgramTemplateID validates and constructs a ProgramTemplateID.
func ParseProgramTemplateID(s string) (ProgramTemplateID, error) {
	u, err := parseUUID(s, "program_template_id")
	return ProgramTemplateID(u), err
}

// ParseBeneficiaryGroupID validates and constructs a BeneficiaryGroupID.
func ParseBeneficiaryGroupID(s string) (BeneficiaryGroupID, error) {
	u, err := parseUUID(s, "beneficiary_group_id")
	return BeneficiaryGroupID(u), err
}

// ParsePackID validates and constructs a PackID from external input.
func ParsePackID(s string) (PackID, error) {
	u, err := parseUUID(s, "pack_id")
	return PackID(u), err
}

// ParseActivityEntryID validates and constructs an ActivityEntryID.
func ParseActivityEntryID(s string) (ActivityEntryID, error) {
	u, err := parseUUID(s, "activity_entry_id")
	return ActivityEntryID(u), err
}

// NewCampaignID generates a fresh campaign identifier.
func NewCampaignID() CampaignID { return CampaignID(uuid.New()) }

// NewInstanceID generates a fresh program instance identifier.
func NewInstanceID() InstanceID { return InstanceID(uuid.New()) }

// NewCompanyID generates a fresh company identifier.
func NewCompanyID() CompanyID { return CompanyID(uuid.New()) }

// NewProgramTemplateID generates a fresh program template identifier.
func NewProgramTemplateID() ProgramTemplateID { return ProgramTemplateID(uuid.New()) }

// NewBeneficiaryGroupID generates a fresh beneficiary group identifier.
func NewBeneficiaryGroupID() BeneficiaryGroupID { return BeneficiaryGroupID(uuid.New()) }

// NewOutcomeScoreID generates a fresh outcome score identifier.
func NewOutcomeScoreID() OutcomeScoreID { return OutcomeScoreID(uuid.New()) }

// NewPackID generates a fresh regulatory pack identifier.
func NewPackID() PackID { return PackID(uuid.New()) }

// NewActivityEntryID generates a fresh activity log entry identifier.
func NewActivityEntryID() ActivityEntryID { return ActivityEntryID(uuid.New()) }

func (id CampaignID) String() string         { return uuid.UUID(id).String() }
func (id InstanceID) String() string         { return uuid.UUID(id).String() }
func (id CompanyID) String() string          { return uuid.UUID(id).String() }
func (id ProgramTemplateID) String() string  { return uuid.UUID(id).String() }
func (id BeneficiaryGroupID) String() string { return uuid.UUID(id).String() }
func (id OutcomeScoreID) String() string     { return uuid.UUID(id).String() }
func (id PackID) String() string             { return uuid.UUID(id).String() }
func (id ActivityEntryID) String() string    { return uuid.UUID(id).String() }

func (id CampaignID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id InstanceID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id CompanyID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id ProgramTemplateID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id BeneficiaryGroupID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id OutcomeScoreID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id PackID) IsNil() bool             { return uuid.UUID(id) == uuid.Nil }
func (id ActivityEntryID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
