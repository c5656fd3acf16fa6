package reconcile

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/leadscore-cli/internal/model"
)

// placeholderRole is reported when no professional-network designation
// exists. Other sources are never used to guess a role.
const placeholderRole = "Professional"

// Reconciler merges employment, professional-network, business-registry
// and demographic records. Time is injectable so tenure math is testable.
type Reconciler struct {
	now time.Time
}

// NewReconciler returns a Reconciler anchored at the current time.
func NewReconciler() *Reconciler {
	return &Reconciler{now: time.Now()}
}

// WithNow sets a fixed time for testing.
func (r *Reconciler) WithNow(t time.Time) *Reconciler {
	r.now = t
	return r
}

// Reconcile resolves conflicting sources into one ProfessionalProfile.
// Conflicts resolve by source precedence (professional network wins for
// designation) and recency (latest join date wins for current employer).
func (r *Reconciler) Reconcile(employment []Document, network Document, businesses []Document, demography Document) model.ProfessionalProfile {
	out := model.ProfessionalProfile{
		CurrentRole:    placeholderRole,
		EmploymentType: employmentType(demography),
		CurrentTenure:  model.NotAvailable,
	}

	if role := network.Str("designation", "title", "headline"); role != "" {
		out.CurrentRole = role
	}

	if cur, ok := currentEmployment(employment); ok {
		out.CurrentEmployer = cur.Str("employer_name", "company_name", "organisation", "employer")
		if join, ok := parseDate(cur.Str("date_of_joining", "join_date", "start_date")); ok {
			out.CurrentTenure = formatTenure(join, r.now)
		}
	}

	out.ActiveBusiness, out.HasBusinessRecord = activeBusiness(businesses)
	out.PreviousEmployers = previousEmployers(employment)

	return out
}

// ProfileFromRaw derives a ProfessionalProfile from a stored provider
// response, always fresh on read.
func (r *Reconciler) ProfileFromRaw(raw json.RawMessage) (model.ProfessionalProfile, error) {
	doc, err := ParsePayload(raw)
	if err != nil {
		return model.ProfessionalProfile{}, err
	}
	return r.Reconcile(
		doc.Docs("employment_records", "employments"),
		doc.Doc("professional_network"),
		doc.Docs("business_records", "businesses"),
		doc.Doc("demography"),
	), nil
}

// currentEmployment selects the record treated as the lead's current job:
// the ones without a real exit date, tie-broken by latest parseable join
// date, falling back to input order when no join dates parse.
func currentEmployment(records []Document) (Document, bool) {
	var (
		best     Document
		bestJoin time.Time
		bestOK   bool
		found    bool
	)
	for _, rec := range records {
		if hasExitDate(rec) {
			continue
		}
		join, joinOK := parseDate(rec.Str("date_of_joining", "join_date", "start_date"))
		if !found {
			best, bestJoin, bestOK, found = rec, join, joinOK, true
			continue
		}
		if joinOK && (!bestOK || join.After(bestJoin)) {
			best, bestJoin, bestOK = rec, join, joinOK
		}
	}
	return best, found
}

// previousEmployers returns every record carrying a real exit date,
// annotated with computed tenure, in the order received.
func previousEmployers(records []Document) []model.PastEmployment {
	var out []model.PastEmployment
	for _, rec := range records {
		if !hasExitDate(rec) {
			continue
		}
		past := model.PastEmployment{
			Employer:    rec.Str("employer_name", "company_name", "organisation", "employer"),
			Designation: rec.Str("designation", "title"),
			Tenure:      model.NotAvailable,
		}
		join, joinOK := parseDate(rec.Str("date_of_joining", "join_date", "start_date"))
		exit, exitOK := parseDate(rec.Str("date_of_exit", "exit_date", "end_date"))
		if joinOK && exitOK {
			past.Tenure = formatTenure(join, exit)
		}
		out = append(out, past)
	}
	return out
}

// activeBusiness reports the first business with status "active" as
// "name - industry - turnover tier", dropping missing components. Records
// with none active report "Inactive"; no records at all is a different
// state, reported as an empty value with hasRecord false.
func activeBusiness(businesses []Document) (string, bool) {
	if len(businesses) == 0 {
		return "", false
	}
	for _, b := range businesses {
		if !strings.EqualFold(strings.TrimSpace(b.Str("status")), "active") {
			continue
		}
		var parts []string
		for _, v := range []string{
			b.Str("name", "business_name", "entity_name"),
			b.Str("industry", "sector"),
			b.Str("turnover_tier", "turnover_range", "turnover"),
		} {
			if v != "" {
				parts = append(parts, v)
			}
		}
		if len(parts) == 0 {
			return "Active", true
		}
		return strings.Join(parts, " - "), true
	}
	return "Inactive", true
}

// employmentType infers Salaried / Self-Employed from the free-text
// demographic designation. Unrecognized text passes through unmodified.
func employmentType(demography Document) string {
	raw := demography.Str("designation", "occupation", "employment_type")
	if raw == "" {
		return model.NotAvailable
	}
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "salaried"):
		return "Salaried"
	case strings.Contains(lower, "self"), strings.Contains(lower, "business"):
		return "Self-Employed"
	default:
		return raw
	}
}

// exitPlaceholders are values that mean "still employed" rather than an
// actual exit date.
var exitPlaceholders = map[string]bool{
	"":           true,
	"-":          true,
	"na":         true,
	"n/a":        true,
	"nil":        true,
	"null":       true,
	"present":    true,
	"current":    true,
	"till date":  true,
	"0000-00-00": true,
}

func hasExitDate(rec Document) bool {
	v := strings.ToLower(strings.TrimSpace(rec.Str("date_of_exit", "exit_date", "end_date")))
	return !exitPlaceholders[v]
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"02/01/2006",
	"02-01-2006",
	"2006-01",
	"Jan 2006",
	"January 2006",
	"2006",
}

// parseDate tries the layouts seen across providers. Unparseable dates are
// reported via ok=false, never an error: callers fall back to "N/A".
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// formatTenure renders elapsed time between two dates in fractional years
// to one decimal, by calendar-day difference over 365.25.
func formatTenure(from, to time.Time) string {
	if to.Before(from) {
		return model.NotAvailable
	}
	years := to.Sub(from).Hours() / 24 / 365.25
	return fmt.Sprintf("%.1f yrs", years)
}
