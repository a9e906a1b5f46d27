// Package metrics records dispatch observability counters. Sinks must be
// non-blocking; a nil or Noop sink disables recording entirely.
package metrics

type Sink interface {
	// PublishOutcome counts one finished schedule by aggregate status.
	PublishOutcome(status string)

	// PlatformAttempt counts one settled per-platform result.
	PlatformAttempt(platform string, ok bool)

	FanoutInFlightIncr()
	FanoutInFlightDecr()
}

type Noop struct{}

func (Noop) PublishOutcome(string)        {}
func (Noop) PlatformAttempt(string, bool) {}
func (Noop) FanoutInFlightIncr()          {}
func (Noop) FanoutInFlightDecr()          {}
