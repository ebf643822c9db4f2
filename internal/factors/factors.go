// Package factors converts raw profile attributes into normalized risk
// sub-scores via the reference tables. Every function here is pure: same
// input and table set, same output, no I/O. Out-of-range numeric input
// clamps to the nearest band; unknown or missing input resolves to the
// documented default and is reported as defaulted, never as an error.
package factors

import (
	"github.com/sells-group/cci-engine/internal/model"
	"github.com/sells-group/cci-engine/internal/tables"
)

// Factor identifiers. These key the reference tables, the sub-score map in
// results, and the defaulted-fields record.
const (
	FICO            = "fico"
	DTI             = "dti"
	PaymentHistory  = "payment_history"
	Education       = "education"
	Experience      = "experience"
	JobTitle        = "job_title"
	JobTenure       = "job_tenure"
	PracticeField   = "practice_field"
	Age             = "age"
	State           = "state"
	IndustryType    = "industry_type"
	OperatingMargin = "operating_margin"
	CompanySize     = "company_size"
	CompanyAge      = "company_age"
	PERatio         = "pe_ratio"
)

// Professional lists the person-side factors in their canonical order.
var Professional = []string{
	Education, Experience, JobTitle, JobTenure, PracticeField,
	Age, State, FICO, DTI, PaymentHistory,
}

// Industry lists the company-side factors in their canonical order.
var Industry = []string{
	IndustryType, OperatingMargin, CompanySize, CompanyAge, PERatio,
}

// Sub is one factor's scoring outcome.
type Sub struct {
	Score     float64
	Defaulted bool
}

// Categorical scores a free-text categorical input against the named table.
func Categorical(ts *tables.Set, table, raw string) Sub {
	ct := ts.Categorical[table]
	cat, ok := Canonicalize(raw, ct.Categories())
	if !ok {
		return Sub{Score: ct.Default, Defaulted: true}
	}
	score, defaulted := ct.Lookup(cat)
	return Sub{Score: score, Defaulted: defaulted}
}

// band scores an optional numeric input against the named band table.
func band(ts *tables.Set, table string, v *float64) Sub {
	if v == nil {
		return Sub{Score: ts.DefaultSubScore, Defaulted: true}
	}
	return Sub{Score: ts.Bands[table].Score(*v)}
}

func intBand(ts *tables.Set, table string, v *int) Sub {
	if v == nil {
		return Sub{Score: ts.DefaultSubScore, Defaulted: true}
	}
	f := float64(*v)
	return band(ts, table, &f)
}

// ScoreProfessional scores every person-side factor.
func ScoreProfessional(ts *tables.Set, p *model.ProfessionalProfile) map[string]Sub {
	return map[string]Sub{
		Education:      Categorical(ts, Education, p.Education),
		Experience:     intBand(ts, Experience, p.YearsExperience),
		JobTitle:       Categorical(ts, JobTitle, p.JobTitle),
		JobTenure:      band(ts, JobTenure, p.JobTenureYears),
		PracticeField:  Categorical(ts, PracticeField, p.PracticeField),
		Age:            intBand(ts, Age, p.Age),
		State:          Categorical(ts, State, p.State),
		FICO:           intBand(ts, FICO, p.FICO),
		DTI:            band(ts, DTI, p.DTI),
		PaymentHistory: band(ts, PaymentHistory, p.PaymentHistory),
	}
}

// ScoreCompany scores every company-side factor.
func ScoreCompany(ts *tables.Set, c *model.CompanyProfile) map[string]Sub {
	return map[string]Sub{
		IndustryType:    Categorical(ts, IndustryType, c.IndustryType),
		OperatingMargin: band(ts, OperatingMargin, c.OperatingMargin),
		CompanySize:     intBand(ts, CompanySize, c.EmployeeCount),
		CompanyAge:      intBand(ts, CompanyAge, c.CompanyAgeYears),
		PERatio:         band(ts, PERatio, c.PERatio),
	}
}
