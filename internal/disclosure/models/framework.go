package models

import derrors "tangible/pkg/domain-errors"

// Framework identifies a regulatory reporting framework.
type Framework string

const (
	FrameworkCSRD Framework = "csrd"
	FrameworkGRI  Framework = "gri"
	FrameworkSDG  Framework = "sdg"
)

var validFrameworks = map[Framework]bool{
	FrameworkCSRD: true,
	FrameworkGRI:  true,
	FrameworkSDG:  true,
}

// ParseFramework constructs a Framework from external input.
func ParseFramework(s string) (Framework, error) {
	if s == "" {
		return "", derrors.New(derrors.CodeInvalidInput, "framework cannot be empty")
	}
	f := Framework(s)
	if !f.IsValid() {
		return "", derrors.New(derrors.CodeInvalidInput, "invalid framework")
	}
	return f, nil
}

// IsValid checks if the framework is one of the supported enum values.
func (f Framework) IsValid() bool { return validFrameworks[f] }

// String returns the string representation.
func (f Framework) String() string { return string(f) }

// DataPoint is one evidence requirement inside a disclosure. Mandatory
// data points drive critical/high gap severity and block "complete".
type DataPoint struct {
	Key         string
	Description string
	Mandatory   bool
}

// Disclosure is a single regulatory reporting requirement that must be
// evidenced.
type Disclosure struct {
	Framework  Framework
	Code       string
	Title      string
	DataPoints []DataPoint
}

// Ref returns the stable "framework:code" key used in scopes and maps.
func (d Disclosure) Ref() string {
	return string(d.Framework) + ":" + d.Code
}

// disclosureRegistry is the process-wide immutable registry of
// supported disclosures per framework. Loaded once; never mutated.
var disclosureRegistry = map[Framework][]Disclosure{
	FrameworkCSRD: {
		{
			Framework: FrameworkCSRD, Code: "ESRS-S1-6", Title: "Characteristics of the undertaking's employees engaged in social programs",
			DataPoints: []DataPoint{
				{Key: "volunteer_headcount", Description: "Number of employee volunteers engaged", Mandatory: true},
				{Key: "volunteer_hours", Description: "Total volunteer hours contributed", Mandatory: true},
				{Key: "volunteer_demographics", Description: "Demographic breakdown of volunteers", Mandatory: false},
			},
		},
		{
			Framework: FrameworkCSRD, Code: "ESRS-S3-4", Title: "Actions on material impacts for affected communities",
			DataPoints: []DataPoint{
				{Key: "beneficiaries_reached", Description: "Number of community beneficiaries reached", Mandatory: true},
				{Key: "outcome_evidence", Description: "Evidence of outcomes for affected communities", Mandatory: true},
				{Key: "program_spend", Description: "Spend allocated to community programs", Mandatory: true},
				{Key: "partner_organizations", Description: "Delivery partner organizations", Mandatory: false},
			},
		},
	},
	FrameworkGRI: {
		{
			Framework: FrameworkGRI, Code: "GRI-413-1", Title: "Operations with local community engagement programs",
			DataPoints: []DataPoint{
				{Key: "program_coverage", Description: "Share of operations with community programs", Mandatory: true},
				{Key: "impact_assessment", Description: "Social impact assessments performed", Mandatory: false},
			},
		},
		{
			Framework: FrameworkGRI, Code: "GRI-404-1", Title: "Average hours of training per beneficiary",
			DataPoints: []DataPoint{
				{Key: "training_hours", Description: "Hours of training delivered", Mandatory: true},
				{Key: "learners_served", Description: "Learners who received training", Mandatory: true},
			},
		},
	},
	FrameworkSDG: {
		{
			Framework: FrameworkSDG, Code: "SDG-4.4", Title: "Youth and adults with relevant skills for employment",
			DataPoints: []DataPoint{
				{Key: "skills_outcomes", Description: "Skill attainment outcomes", Mandatory: true},
				{Key: "job_readiness_scores", Description: "Job readiness outcome scores", Mandatory: false},
			},
		},
		{
			Framework: FrameworkSDG, Code: "SDG-10.2", Title: "Social, economic and political inclusion",
			DataPoints: []DataPoint{
				{Key: "inclusion_outcomes", Description: "Belonging and inclusion outcome scores", Mandatory: true},
				{Key: "participation_rates", Description: "Participation of underrepresented groups", Mandatory: false},
			},
		},
	},
}

// Disclosures returns the registered disclosures for a framework. The
// returned slice is shared; callers must not mutate it.
func Disclosures(f Framework) []Disclosure {
	return disclosureRegistry[f]
}
