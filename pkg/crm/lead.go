package crm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// maxBatchSize is the Salesforce Collections API limit per request.
const maxBatchSize = 200

// SiteVisitLead represents a site-visit lead record pulled from Salesforce.
type SiteVisitLead struct {
	ID                string  `json:"Id" salesforce:"Id"`
	Name              string  `json:"Name" salesforce:"Name"`
	Phone             string  `json:"Phone" salesforce:"Phone"`
	Email             string  `json:"Email" salesforce:"Email"`
	Project           string  `json:"Project__c" salesforce:"Project__c"`
	OwnerName         string  `json:"Owner_Name__c" salesforce:"Owner_Name__c"`
	LeadSource        string  `json:"LeadSource" salesforce:"LeadSource"`
	VisitDate         string  `json:"Visit_Date__c" salesforce:"Visit_Date__c"`
	LatestRevisitDate string  `json:"Latest_Revisit_Date__c" salesforce:"Latest_Revisit_Date__c"`
	BudgetCr          float64 `json:"Budget_Cr__c" salesforce:"Budget_Cr__c"`
	Preference        string  `json:"Preference__c" salesforce:"Preference__c"`
	VisitNotes        string  `json:"Visit_Notes__c" salesforce:"Visit_Notes__c"`
	ManagerRating     string  `json:"Manager_Rating__c" salesforce:"Manager_Rating__c"`
}

// leadFields are the SOQL fields selected for site-visit lead queries.
var leadFields = []string{
	"Id", "Name", "Phone", "Email", "Project__c", "Owner_Name__c",
	"LeadSource", "Visit_Date__c", "Latest_Revisit_Date__c",
	"Budget_Cr__c", "Preference__c", "Visit_Notes__c", "Manager_Rating__c",
}

// FindLeadsByProject queries Salesforce for all site-visit leads attached to
// the given project. Returns an empty slice when the project has none.
func FindLeadsByProject(ctx context.Context, c Client, project string) ([]SiteVisitLead, error) {
	soql := fmt.Sprintf(
		"SELECT %s FROM Lead WHERE Project__c = '%s'",
		strings.Join(leadFields, ", "),
		escapeSoql(project),
	)

	var leads []SiteVisitLead
	if err := c.Query(ctx, soql, &leads); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("crm: find leads for project %s", project))
	}
	return leads, nil
}

// RatingUpdate holds a lead ID and the scored ratings to push back.
type RatingUpdate struct {
	ID        string
	AIRating  string
	MQLRating string
}

// PushRatings writes AI and MQL ratings back onto lead records, splitting the
// updates into batches of 200 (SF Collections API limit).
func PushRatings(ctx context.Context, c Client, updates []RatingUpdate) ([]CollectionResult, error) {
	if len(updates) == 0 {
		return nil, nil
	}

	var allResults []CollectionResult

	for start := 0; start < len(updates); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(updates) {
			end = len(updates)
		}
		batch := updates[start:end]

		records := make([]CollectionRecord, len(batch))
		for i, u := range batch {
			fields := make(map[string]any, 2)
			if u.AIRating != "" {
				fields["AI_Rating__c"] = u.AIRating
			}
			if u.MQLRating != "" {
				fields["MQL_Rating__c"] = u.MQLRating
			}
			records[i] = CollectionRecord{ID: u.ID, Fields: fields}
		}

		results, err := c.UpdateCollection(ctx, "Lead", records)
		if err != nil {
			return allResults, eris.Wrap(err, fmt.Sprintf("crm: push ratings batch %d-%d", start, end))
		}
		allResults = append(allResults, results...)
	}

	return allResults, nil
}

// escapeSoql escapes single quotes in SOQL string literals to prevent injection.
func escapeSoql(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}
