package dispatch

import (
	"testing"

	"github.com/publora/publora/internal/models"
	"github.com/publora/publora/internal/platform"
	"github.com/stretchr/testify/assert"
)

func TestReducePublishAllAttemptedSucceeded(t *testing.T) {
	results := map[string]platform.Result{
		"facebook": {Platform: "facebook", OK: true, Detail: "text_success"},
		"twitter":  {Platform: "twitter", OK: true, Detail: "success"},
	}

	assert.Equal(t, models.ScheduleStatusPublished, ReducePublish(results))
}

func TestReducePublishAnyAttemptedFailure(t *testing.T) {
	results := map[string]platform.Result{
		"facebook": {Platform: "facebook", OK: true, Detail: "text_success"},
		"twitter":  {Platform: "twitter", Detail: "error: platform responded with status 500"},
	}

	assert.Equal(t, models.ScheduleStatusFailed, ReducePublish(results))
}

func TestReducePublishSkipsDoNotFailAggregate(t *testing.T) {
	results := map[string]platform.Result{
		"facebook": {Platform: "facebook", OK: true, Detail: "image_success"},
		"twitter":  {Platform: "twitter", Detail: "no_credentials"},
		"youtube":  {Platform: "youtube", Detail: "no_video"},
	}

	assert.Equal(t, models.ScheduleStatusPublished, ReducePublish(results))
}

func TestReducePublishNothingAttempted(t *testing.T) {
	results := map[string]platform.Result{
		"twitter": {Platform: "twitter", Detail: "no_credentials"},
		"youtube": {Platform: "youtube", Detail: "no_video"},
	}

	assert.Equal(t, models.ScheduleStatusFailed, ReducePublish(results))
}

func TestReducePublishEmpty(t *testing.T) {
	assert.Equal(t, models.ScheduleStatusFailed, ReducePublish(nil))
}

func TestLedgerKeepsOneEntryPerPlatform(t *testing.T) {
	results := map[string]platform.Result{
		"facebook": {Platform: "facebook", OK: true, Detail: "video_success"},
		"twitter":  {Platform: "twitter", Detail: "no_credentials"},
		"youtube":  {Platform: "youtube", Detail: "error: upload rejected"},
	}

	ledger := Ledger(results)
	assert.Equal(t, models.ResultMap{
		"facebook": "video_success",
		"twitter":  "no_credentials",
		"youtube":  "error: upload rejected",
	}, ledger)
}

func TestMergeMetricsSumsOnlySuccessfulFetches(t *testing.T) {
	results := []platform.MetricsResult{
		{Platform: "facebook", OK: true, Views: 100, Clicks: 4},
		{Platform: "twitter", OK: true, Views: 50, Clicks: 6},
		{Platform: "youtube", Detail: "error: token expired"},
	}

	overview := MergeMetrics(results)

	assert.Equal(t, int64(150), overview.Totals.Views)
	assert.Equal(t, int64(10), overview.Totals.Clicks)
	assert.InDelta(t, 6.67, overview.Totals.CTR, 0.01)
	assert.Len(t, overview.Platforms, 3)
}

func TestMergeMetricsZeroViews(t *testing.T) {
	results := []platform.MetricsResult{
		{Platform: "facebook", OK: true, Views: 0, Clicks: 0},
	}

	overview := MergeMetrics(results)
	assert.Zero(t, overview.Totals.CTR)
}
