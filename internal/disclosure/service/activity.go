package service

import (
	"context"
	"time"

	campaignstore "tangible/internal/campaign/store"
	instancemodels "tangible/internal/instance/models"
	instancestore "tangible/internal/instance/store"
	id "tangible/pkg/domain"
	derrors "tangible/pkg/domain-errors"
)

// Activity is the operational rollup counter-backed disclosures draw
// evidence from: what a company's campaigns actually delivered inside
// the reporting period.
type Activity struct {
	CampaignCount  int
	Volunteers     int
	VolunteerHours float64
	Beneficiaries  int
	SessionsHeld   int
	LearnersServed int
	BudgetSpent    float64
}

// ActivitySource yields the company activity rollup for a period.
type ActivitySource interface {
	ActivityForCompany(ctx context.Context, companyID id.CompanyID, periodStart, periodEnd time.Time) (Activity, error)
}

// activityPageSize bounds each campaign page while sweeping a company.
const activityPageSize = 100

// StoreActivitySource derives Activity from the campaign and instance
// stores. Only instances whose run overlaps the period contribute;
// campaign-level budget spend is attributed to the period as a whole
// since spend is not tracked per instance.
type StoreActivitySource struct {
	campaigns campaignstore.Store
	instances instancestore.Store
}

func NewActivitySource(campaigns campaignstore.Store, instances instancestore.Store) *StoreActivitySource {
	return &StoreActivitySource{campaigns: campaigns, instances: instances}
}

func (a *StoreActivitySource) ActivityForCompany(ctx context.Context, companyID id.CompanyID, periodStart, periodEnd time.Time) (Activity, error) {
	var act Activity
	offset := 0
	for {
		page, total, err := a.campaigns.List(ctx, campaignstore.ListFilter{
			CompanyID:       &companyID,
			IncludeArchived: true,
			Limit:           activityPageSize,
			Offset:          offset,
			SortBy:          campaignstore.SortByCreatedAt,
			SortOrder:       "asc",
		})
		if err != nil {
			return Activity{}, derrors.Wrap(err, derrors.CodeInternal, "failed to list campaigns for activity rollup")
		}

		for _, c := range page {
			act.CampaignCount++
			act.BudgetSpent += c.BudgetSpent

			instances, err := a.instances.ListByCampaign(ctx, c.ID)
			if err != nil {
				return Activity{}, derrors.Wrap(err, derrors.CodeInternal, "failed to list instances for activity rollup")
			}
			var inPeriod []instancemodels.ProgramInstance
			for _, inst := range instances {
				if inst.StartDate.Before(periodEnd) && inst.EndDate.After(periodStart) {
					inPeriod = append(inPeriod, inst)
				}
			}
			agg := instancemodels.Aggregate(inPeriod)
			act.Volunteers += agg.EnrolledVolunteers
			act.VolunteerHours += agg.TotalHoursLogged
			act.Beneficiaries += agg.EnrolledBeneficiaries
			act.SessionsHeld += agg.TotalSessionsHeld
			act.LearnersServed += agg.LearnersServed
		}

		offset += len(page)
		if len(page) == 0 || offset >= total {
			return act, nil
		}
	}
}
