package engine

import (
	"sort"

	"github.com/sells-group/cci-engine/internal/factors"
	"github.com/sells-group/cci-engine/internal/model"
	"github.com/sells-group/cci-engine/internal/tables"
)

// tierActions keys generic mitigation actions to the assigned risk tier.
var tierActions = map[model.RiskTier][]model.Recommendation{
	model.TierCriticalHigh: {
		{Category: "program", Priority: model.PriorityHigh, Action: "Engage a dedicated risk mitigation program with executive sponsorship", Impact: "high", Cost: "high", Timeframe: "immediate"},
		{Category: "review", Priority: model.PriorityHigh, Action: "Move coverage and exposure reviews to a monthly cadence", Impact: "high", Cost: "medium", Timeframe: "immediate"},
	},
	model.TierExtremelyHigh: {
		{Category: "program", Priority: model.PriorityHigh, Action: "Engage a dedicated risk mitigation program with executive sponsorship", Impact: "high", Cost: "high", Timeframe: "1 month"},
		{Category: "review", Priority: model.PriorityHigh, Action: "Move coverage and exposure reviews to a monthly cadence", Impact: "high", Cost: "medium", Timeframe: "1 month"},
	},
	model.TierVeryHigh: {
		{Category: "program", Priority: model.PriorityHigh, Action: "Implement a risk mitigation program covering the weakest factors", Impact: "high", Cost: "medium", Timeframe: "3 months"},
	},
	model.TierHigh: {
		{Category: "program", Priority: model.PriorityMedium, Action: "Implement a risk mitigation program covering the weakest factors", Impact: "medium", Cost: "medium", Timeframe: "6 months"},
	},
	model.TierModerate: {
		{Category: "review", Priority: model.PriorityMedium, Action: "Schedule semi-annual risk reviews", Impact: "medium", Cost: "low", Timeframe: "6 months"},
	},
	model.TierLow: {
		{Category: "monitoring", Priority: model.PriorityLow, Action: "Maintain routine annual monitoring", Impact: "low", Cost: "low", Timeframe: "12 months"},
	},
	model.TierVeryLow: {
		{Category: "monitoring", Priority: model.PriorityLow, Action: "Maintain routine annual monitoring", Impact: "low", Cost: "low", Timeframe: "12 months"},
	},
}

// factorActions keys mitigation actions to individual factors whose
// sub-score reaches the configured risk threshold. Factors without an entry
// generate no factor-level recommendation.
var factorActions = map[string]model.Recommendation{
	factors.FICO: {
		Category: "credit", Priority: model.PriorityHigh,
		Action: "Begin a credit improvement plan: dispute reporting errors and reduce utilization",
		Impact: "high", Cost: "low", Timeframe: "6-12 months",
	},
	factors.DTI: {
		Category: "credit", Priority: model.PriorityHigh,
		Action: "Reduce debt-to-income ratio by restructuring or paying down outstanding obligations",
		Impact: "high", Cost: "medium", Timeframe: "6-12 months",
	},
	factors.PaymentHistory: {
		Category: "credit", Priority: model.PriorityMedium,
		Action: "Automate payments to eliminate missed due dates",
		Impact: "medium", Cost: "low", Timeframe: "1 month",
	},
	factors.Education: {
		Category: "professional", Priority: model.PriorityLow,
		Action: "Pursue continuing education or an industry certification",
		Impact: "medium", Cost: "medium", Timeframe: "12+ months",
	},
	factors.Experience: {
		Category: "professional", Priority: model.PriorityMedium,
		Action: "Pair with a senior practitioner for structured mentorship",
		Impact: "medium", Cost: "low", Timeframe: "6 months",
	},
	factors.JobTenure: {
		Category: "professional", Priority: model.PriorityLow,
		Action: "Document role continuity and retention arrangements",
		Impact: "low", Cost: "low", Timeframe: "3 months",
	},
	factors.OperatingMargin: {
		Category: "financial", Priority: model.PriorityHigh,
		Action: "Commission a cost-structure review to restore operating margin",
		Impact: "high", Cost: "medium", Timeframe: "6 months",
	},
	factors.CompanySize: {
		Category: "governance", Priority: model.PriorityMedium,
		Action: "Formalize internal controls appropriate to headcount",
		Impact: "medium", Cost: "medium", Timeframe: "6 months",
	},
	factors.CompanyAge: {
		Category: "governance", Priority: model.PriorityMedium,
		Action: "Adopt a governance maturity roadmap for the early-stage company",
		Impact: "medium", Cost: "low", Timeframe: "6 months",
	},
	factors.PERatio: {
		Category: "financial", Priority: model.PriorityMedium,
		Action: "Review earnings volatility and valuation exposure with a financial advisor",
		Impact: "medium", Cost: "medium", Timeframe: "3 months",
	},
	factors.IndustryType: {
		Category: "industry", Priority: model.PriorityMedium,
		Action: "Adopt industry-specific loss control practices",
		Impact: "medium", Cost: "medium", Timeframe: "6 months",
	},
}

var priorityRank = map[model.Priority]int{
	model.PriorityHigh:   0,
	model.PriorityMedium: 1,
	model.PriorityLow:    2,
}

// recommend builds the ranked mitigation list: tier-level actions first
// joined by factor-level actions for every sub-score at or above the risk
// threshold, ordered by priority then category for determinism.
func recommend(ts *tables.Set, tier model.RiskTier, subs map[string]factors.Sub) []model.Recommendation {
	recs := append([]model.Recommendation(nil), tierActions[tier]...)

	names := make([]string, 0, len(subs))
	for name := range subs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if subs[name].Score < ts.RecommendThreshold {
			continue
		}
		if rec, ok := factorActions[name]; ok {
			recs = append(recs, rec)
		}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if priorityRank[recs[i].Priority] != priorityRank[recs[j].Priority] {
			return priorityRank[recs[i].Priority] < priorityRank[recs[j].Priority]
		}
		return recs[i].Category < recs[j].Category
	})

	return recs
}
