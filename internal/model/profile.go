package model

// NotAvailable is the sentinel for values that cannot be determined.
// It is distinct from zero: a zero ratio is a computed result, "N/A" means
// the inputs were missing or unusable.
const NotAvailable = "N/A"

// ProfessionalProfile is the reconciled view of a lead's employment,
// professional-network and business-registry records. It is derived fresh
// from the stored enrichment payload on every read and never persisted, so
// rule changes take effect without a backfill.
type ProfessionalProfile struct {
	CurrentEmployer   string `json:"current_employer"`
	CurrentRole       string `json:"current_role"`
	EmploymentType    string `json:"employment_type"`
	CurrentTenure     string `json:"current_tenure"` // "4.5 yrs" or "N/A"
	ActiveBusiness    string `json:"active_business"`
	HasBusinessRecord bool   `json:"has_business_record"`

	PreviousEmployers []PastEmployment `json:"previous_employers,omitempty"`
}

// PastEmployment is one prior role with its computed tenure.
type PastEmployment struct {
	Employer    string `json:"employer"`
	Designation string `json:"designation,omitempty"`
	Tenure      string `json:"tenure"` // "2.3 yrs" or "N/A"
}

// FinancialSummary is the reconciled view of a lead's credit, income, loan
// and card records. Derived on read, same as ProfessionalProfile.
type FinancialSummary struct {
	CreditScoreBand string  `json:"credit_score_band"` // "<600", "600-700", "700-800", "800+", "N/A"
	MonthlyIncome   float64 `json:"monthly_income"`    // currency units per month, 0 when unknown
	IncomeLacs      float64 `json:"income_lacs"`       // annual income in lakhs as reported

	TotalLoans      int `json:"total_loans"`
	ActiveHomeLoans int `json:"active_home_loans"`
	ActiveAutoLoans int `json:"active_auto_loans"`
	TotalCards      int `json:"total_cards"`
	ActiveCards     int `json:"active_cards"`

	TotalEMI         float64 `json:"total_emi"`          // active home+auto loans only
	EMIToIncomeRatio string  `json:"emi_to_income_ratio"` // "12.5%" or "N/A"
}
