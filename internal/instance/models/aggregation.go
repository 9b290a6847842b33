package models

// InstanceAggregation is the pure reduction of a campaign's instances,
// used by the rollup job to re-derive campaign-level counters. The core
// never enforces cross-entity consistency synchronously; this reducer
// is how the external job restores it.
type InstanceAggregation struct {
	TotalInstances        int
	ActiveInstances       int
	CompletedInstances    int
	EnrolledVolunteers    int
	EnrolledBeneficiaries int
	TotalSessionsHeld     int
	TotalHoursLogged      float64
	VolunteersConsumed    int
	CreditsConsumed       float64
	LearnersServed        int

	// Averages over instances that have a score; nil when none do, so
	// an empty campaign never reports a fabricated zero.
	AvgSROI *float64
	AvgVIS  *float64
}

// Aggregate reduces instances to campaign-level sums. An empty slice
// yields all-zero counters with nil averages; no divide-by-zero.
func Aggregate(instances []ProgramInstance) InstanceAggregation {
	var agg InstanceAggregation
	var sroiSum, visSum float64
	var sroiCount, visCount int

	for _, inst := range instances {
		agg.TotalInstances++
		switch inst.Status {
		case StatusActive:
			agg.ActiveInstances++
		case StatusCompleted:
			agg.CompletedInstances++
		}
		agg.EnrolledVolunteers += inst.EnrolledVolunteers
		agg.EnrolledBeneficiaries += inst.EnrolledBeneficiaries
		agg.TotalSessionsHeld += inst.TotalSessionsHeld
		agg.TotalHoursLogged += inst.TotalHoursLogged
		agg.VolunteersConsumed += inst.VolunteersConsumed
		agg.CreditsConsumed += inst.CreditsConsumed
		agg.LearnersServed += inst.LearnersServed

		if inst.SROIScore != nil {
			sroiSum += *inst.SROIScore
			sroiCount++
		}
		if inst.AverageVISScore != nil {
			visSum += *inst.AverageVISScore
			visCount++
		}
	}

	if sroiCount > 0 {
		avg := sroiSum / float64(sroiCount)
		agg.AvgSROI = &avg
	}
	if visCount > 0 {
		avg := visSum / float64(visCount)
		agg.AvgVIS = &avg
	}
	return agg
}
