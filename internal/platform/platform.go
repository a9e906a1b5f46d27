package platform

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Credential carries the decrypted identifiers an adapter needs to act as a
// connected account: the platform-side account id (page id, Instagram
// business account id, Twitter user id, YouTube channel id) and its access
// token.
type Credential struct {
	AccountID   string
	AccessToken string
}

// PostPayload is the normalized content handed to every publisher.
type PostPayload struct {
	Message  string
	Title    string
	ImageURL string
	VideoURL string
}

// Result is the uniform outcome of one adapter call. Detail holds the
// ledger string: a success marker ("text_success", "success"), a skip
// marker ("no_credentials", "no_video") or "error: <message>".
type Result struct {
	Platform  string `json:"platform"`
	OK        bool   `json:"ok"`
	Detail    string `json:"detail"`
	Retryable bool   `json:"retryable,omitempty"`
}

// MetricsResult is the outcome of one metrics fetch. Failed fetches keep
// OK=false and contribute nothing to merged totals.
type MetricsResult struct {
	Platform string `json:"platform"`
	Views    int64  `json:"views"`
	Clicks   int64  `json:"clicks"`
	OK       bool   `json:"ok"`
	Detail   string `json:"detail,omitempty"`
}

const DetailNoCredentials = "no_credentials"

type Publisher interface {
	Name() string
	Publish(ctx context.Context, cred Credential, post PostPayload) (string, error)
}

type MetricsFetcher interface {
	Name() string
	FetchMetrics(ctx context.Context, cred Credential) (MetricsResult, error)
}

// StatusError signals a non-2xx platform response. The retry policy
// classifies transience from the code alone; adapters never retry.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("platform responded with status %d: %s", e.Code, e.Body)
}

const callTimeout = 30 * time.Second

func defaultClient() *http.Client {
	return &http.Client{Timeout: callTimeout}
}
