package platform

import "context"

// Mailchimp is a metrics-only placeholder until campaign reporting is
// connected. It keeps the platform listed in overviews with zero totals.
type Mailchimp struct{}

func NewMailchimp() *Mailchimp { return &Mailchimp{} }

func (m *Mailchimp) Name() string { return "mailchimp" }

func (m *Mailchimp) FetchMetrics(ctx context.Context, cred Credential) (MetricsResult, error) {
	return MetricsResult{Platform: m.Name()}, nil
}
