package reconcile

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sells-group/leadscore-cli/internal/model"
)

// lakh is one lakh in currency units; reported incomes arrive in lakhs.
const lakh = 100_000

type loanType int

const (
	loanOther loanType = iota
	loanHome
	loanAuto
)

// Summarize merges credit, income, loan and card records into a
// FinancialSummary. Pure: identical inputs always yield identical output.
func Summarize(credit, income, loanSummary Document, loans, cards []Document) model.FinancialSummary {
	out := model.FinancialSummary{
		CreditScoreBand:  creditBand(credit),
		EMIToIncomeRatio: model.NotAvailable,
	}

	if lacs, ok := income.Num("final_income_lacs", "income_lacs", "annual_income_lacs"); ok && lacs > 0 {
		out.IncomeLacs = lacs
		out.MonthlyIncome = lacs * lakh / 12
	}

	out.TotalLoans = len(loans)
	if out.TotalLoans == 0 {
		if n, ok := loanSummary.Num("total_loans", "loan_count"); ok {
			out.TotalLoans = int(n)
		}
	}

	var emi float64
	for _, loan := range loans {
		if !recordActive(loan) {
			continue
		}
		switch classifyLoan(loan.Str("type", "loan_type", "account_type")) {
		case loanHome:
			out.ActiveHomeLoans++
		case loanAuto:
			out.ActiveAutoLoans++
		default:
			continue
		}
		// Non-numeric installment amounts contribute zero.
		if amt, ok := loan.Num("installment_amount", "emi_amount"); ok {
			emi += amt
		}
	}
	out.TotalEMI = emi

	out.TotalCards = len(cards)
	for _, card := range cards {
		if recordActive(card) {
			out.ActiveCards++
		}
	}

	// A zero ratio is a computed result; "N/A" means it cannot be
	// determined. Both inputs must be positive before we divide.
	if out.MonthlyIncome > 0 && emi > 0 {
		out.EMIToIncomeRatio = fmt.Sprintf("%.1f%%", emi/out.MonthlyIncome*100)
	}

	return out
}

// SummaryFromRaw derives a FinancialSummary from a stored provider
// response. Derivation always happens on read so rule changes never
// desynchronize from cached projections.
func SummaryFromRaw(raw json.RawMessage) (model.FinancialSummary, error) {
	doc, err := ParsePayload(raw)
	if err != nil {
		return model.FinancialSummary{}, err
	}
	return Summarize(
		doc.Doc("credit_score"),
		doc.Doc("income"),
		doc.Doc("loan_summary"),
		doc.Docs("loans", "loan_records"),
		doc.Docs("cards", "card_records"),
	), nil
}

// creditBand buckets a credit score into the fixed ladder. Missing or
// non-numeric scores report "N/A"; there is no interpolation.
func creditBand(credit Document) string {
	score, ok := credit.Num("score", "credit_score", "value")
	if !ok {
		return model.NotAvailable
	}
	switch {
	case score < 600:
		return "<600"
	case score < 700:
		return "600-700"
	case score < 800:
		return "700-800"
	default:
		return "800+"
	}
}

// recordActive resolves a loan or card's activity status. Precedence is
// strict: an explicit flag always wins, in either direction; only when the
// flag is absent do we infer from the closure date.
func recordActive(d Document) bool {
	if active, ok := d.Bool("is_active", "active"); ok {
		return active
	}
	return d.Str("date_closed", "closed_date", "closure_date") == ""
}

// classifyLoan buckets a free-text loan type by keyword. Unmatched types
// count toward totals but neither bucket.
func classifyLoan(typ string) loanType {
	t := strings.ToLower(typ)
	for _, kw := range []string{"home", "housing", "property"} {
		if strings.Contains(t, kw) {
			return loanHome
		}
	}
	for _, kw := range []string{"auto", "vehicle"} {
		if strings.Contains(t, kw) {
			return loanAuto
		}
	}
	return loanOther
}
