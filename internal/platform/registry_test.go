package platform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAdapter struct {
	name string
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Publish(ctx context.Context, cred Credential, post PostPayload) (string, error) {
	return "success", nil
}

type stubFetcher struct {
	name string
}

func (s *stubFetcher) Name() string { return s.name }

func (s *stubFetcher) FetchMetrics(ctx context.Context, cred Credential) (MetricsResult, error) {
	return MetricsResult{}, nil
}

func TestRegistryResolvesAliases(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubAdapter{name: "twitter"})
	reg.Alias("x", "twitter")

	pub, ok := reg.Publisher("X")
	require.True(t, ok)
	assert.Equal(t, "twitter", pub.Name())

	assert.Equal(t, "twitter", reg.Canonical(" X "))
}

func TestRegistryNormalizeDeduplicates(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubAdapter{name: "twitter"})
	reg.Register(&stubAdapter{name: "facebook"})
	reg.Alias("x", "twitter")

	got := reg.Normalize([]string{"Facebook", "x", "twitter", "", "FACEBOOK"})
	assert.Equal(t, []string{"facebook", "twitter"}, got)
}

func TestRegistrySeparatesCapabilities(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubAdapter{name: "twitter"})
	reg.Register(&stubFetcher{name: "mailchimp"})

	_, ok := reg.Publisher("twitter")
	assert.True(t, ok)
	_, ok = reg.Fetcher("twitter")
	assert.False(t, ok)

	_, ok = reg.Fetcher("mailchimp")
	assert.True(t, ok)
	_, ok = reg.Publisher("mailchimp")
	assert.False(t, ok)
}

func TestRegistryUnknownPlatform(t *testing.T) {
	reg := NewRegistry()

	_, ok := reg.Publisher("myspace")
	assert.False(t, ok)
}
