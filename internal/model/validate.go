package model

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports structurally invalid input fields. It is returned
// before any scoring occurs; no partial result accompanies it.
type ValidationError struct {
	Fields map[string]string // field name -> reason
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// validator accumulates field errors across checks.
type validator struct {
	fields map[string]string
}

func (v *validator) reject(field, reason string) {
	if v.fields == nil {
		v.fields = map[string]string{}
	}
	v.fields[field] = reason
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}

// ValidateProfiles checks both profiles for structurally invalid values.
// Missing fields are not errors; they default during scoring. Provided
// values outside their defined ranges fail fast.
//
// The DTI unit convention is fixed here: values in (1, 100] are treated as
// percentages and normalized to a 0-1 ratio in place.
func ValidateProfiles(prof *ProfessionalProfile, comp *CompanyProfile) error {
	var v validator

	if prof.FICO != nil {
		if *prof.FICO < 300 || *prof.FICO > 850 {
			v.reject("fico", fmt.Sprintf("must be between 300 and 850, got %d", *prof.FICO))
		}
	}
	if prof.DTI != nil {
		d := *prof.DTI
		switch {
		case d < 0 || d > 100:
			v.reject("dti", fmt.Sprintf("must be a 0-1 ratio or 0-100 percent, got %g", d))
		case d > 1:
			normalized := d / 100
			prof.DTI = &normalized
		}
	}
	if prof.PaymentHistory != nil {
		if *prof.PaymentHistory < 0 || *prof.PaymentHistory > 100 {
			v.reject("payment_history", fmt.Sprintf("must be between 0 and 100, got %g", *prof.PaymentHistory))
		}
	}
	if prof.YearsExperience != nil && *prof.YearsExperience < 0 {
		v.reject("years_experience", "must be >= 0")
	}
	if prof.JobTenureYears != nil && *prof.JobTenureYears < 0 {
		v.reject("job_tenure_years", "must be >= 0")
	}
	if prof.Age != nil {
		if *prof.Age < 16 || *prof.Age > 100 {
			v.reject("age", fmt.Sprintf("must be between 16 and 100, got %d", *prof.Age))
		}
	}

	if comp.EmployeeCount != nil && *comp.EmployeeCount < 0 {
		v.reject("employee_count", "must be >= 0")
	}
	if comp.CompanyAgeYears != nil && *comp.CompanyAgeYears < 0 {
		v.reject("company_age_years", "must be >= 0")
	}
	if comp.OperatingMargin != nil {
		if *comp.OperatingMargin < -100 || *comp.OperatingMargin > 100 {
			v.reject("operating_margin", fmt.Sprintf("must be between -100 and 100 percent, got %g", *comp.OperatingMargin))
		}
	}

	return v.err()
}

// ValidateContext checks the external risk context.
func ValidateContext(ctx *ExternalRiskContext) error {
	var v validator

	if ctx.CyberIncidents < 0 {
		v.reject("cyber_incidents", "must be >= 0")
	}
	if ctx.CyberSeverity < 0 || ctx.CyberSeverity > 1 {
		v.reject("cyber_severity", fmt.Sprintf("must be between 0 and 1, got %g", ctx.CyberSeverity))
	}
	if ctx.ComplianceFindings < 0 {
		v.reject("compliance_findings", "must be >= 0")
	}
	if ctx.MarketVolatility < 0 || ctx.MarketVolatility > 1 {
		v.reject("market_volatility", fmt.Sprintf("must be between 0 and 1, got %g", ctx.MarketVolatility))
	}

	return v.err()
}
