package store

import (
	"encoding/json"

	"github.com/sells-group/leadscore-cli/internal/model"
)

// unmarshalAnalysis decodes a stored analysis blob. Corrupt blobs are
// tolerated by callers: the raw provider response remains the fallback.
func unmarshalAnalysis(s string, a *model.LeadAnalysis) error {
	return json.Unmarshal([]byte(s), a)
}
