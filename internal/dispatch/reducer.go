package dispatch

import (
	"strings"

	"github.com/publora/publora/internal/models"
	"github.com/publora/publora/internal/platform"
)

// ReducePublish rolls per-platform results into one schedule status.
//
// Policy: every attempted platform must succeed. Platforms skipped with a
// "no_*" detail (no_credentials, no_video) were never attempted and do
// not fail the aggregate by themselves — but a schedule where nothing was
// attempted at all is failed, since nothing got published.
func ReducePublish(results map[string]platform.Result) string {
	attempted := 0
	for _, r := range results {
		if strings.HasPrefix(r.Detail, "no_") {
			continue
		}
		if !r.OK {
			return models.ScheduleStatusFailed
		}
		attempted++
	}
	if attempted == 0 {
		return models.ScheduleStatusFailed
	}
	return models.ScheduleStatusPublished
}

// Ledger flattens results into the persisted platform -> detail map.
func Ledger(results map[string]platform.Result) models.ResultMap {
	ledger := make(models.ResultMap, len(results))
	for name, r := range results {
		ledger[name] = r.Detail
	}
	return ledger
}

type Totals struct {
	Views  int64   `json:"views"`
	Clicks int64   `json:"clicks"`
	CTR    float64 `json:"ctr"`
}

type Overview struct {
	Totals    Totals                   `json:"totals"`
	Platforms []platform.MetricsResult `json:"platforms"`
}

// MergeMetrics sums views and clicks over the platforms that answered.
// Failed fetches stay listed but contribute nothing, so one broken
// platform cannot corrupt the totals.
func MergeMetrics(results []platform.MetricsResult) Overview {
	var totals Totals
	for _, r := range results {
		if !r.OK {
			continue
		}
		totals.Views += r.Views
		totals.Clicks += r.Clicks
	}
	if totals.Views > 0 {
		totals.CTR = float64(totals.Clicks) / float64(totals.Views) * 100
	}
	return Overview{Totals: totals, Platforms: results}
}
