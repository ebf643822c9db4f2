// Package model defines the input profiles and assessment output types for
// the CCI scoring engine.
package model

// ProfessionalProfile holds the person-side risk attributes for an insured
// professional. Numeric fields are pointers so that missing data can be
// distinguished from zero values; missing fields are scored with the table
// default and reported in AssessmentResult.DefaultedFields.
type ProfessionalProfile struct {
	Education       string   `json:"education,omitempty"`
	YearsExperience *int     `json:"years_experience,omitempty"`
	JobTitle        string   `json:"job_title,omitempty"`
	JobTenureYears  *float64 `json:"job_tenure_years,omitempty"`
	PracticeField   string   `json:"practice_field,omitempty"`
	Age             *int     `json:"age,omitempty"`
	State           string   `json:"state,omitempty"`
	FICO            *int     `json:"fico,omitempty"`
	DTI             *float64 `json:"dti,omitempty"` // 0-1 ratio; values in (1,100] are accepted as percent
	PaymentHistory  *float64 `json:"payment_history,omitempty"` // percent on-time, 0-100
}

// CompanyProfile holds the company-side risk attributes.
type CompanyProfile struct {
	IndustryType    string   `json:"industry_type,omitempty"`
	OperatingMargin *float64 `json:"operating_margin,omitempty"` // percent, may be negative
	EmployeeCount   *int     `json:"employee_count,omitempty"`
	CompanyAgeYears *int     `json:"company_age_years,omitempty"`
	PERatio         *float64 `json:"pe_ratio,omitempty"` // may be negative for negative earnings
}

// ExternalRiskContext carries externally-resolved risk signals. The engine
// never looks these up itself; the caller supplies them already resolved.
type ExternalRiskContext struct {
	CyberIncidents     int     `json:"cyber_incidents"`
	CyberSeverity      float64 `json:"cyber_severity,omitempty"` // 0-1, scales the per-incident uplift
	ComplianceFindings int     `json:"compliance_findings"`
	MarketVolatility   float64 `json:"market_volatility,omitempty"` // 0-1 indicator
}

// Empty reports whether the context carries no external risk signal at all.
// An empty context must leave the base composite score unchanged.
func (c ExternalRiskContext) Empty() bool {
	return c.CyberIncidents == 0 && c.ComplianceFindings == 0 && c.MarketVolatility == 0
}
