package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Prometheus struct {
	publishOutcomes  *prometheus.CounterVec
	platformAttempts *prometheus.CounterVec
	fanoutInFlight   prometheus.Gauge
}

func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		publishOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "publora_publish_outcomes_total",
			Help: "Finished schedules by aggregate status.",
		}, []string{"status"}),
		platformAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "publora_platform_attempts_total",
			Help: "Settled per-platform results by platform and outcome.",
		}, []string{"platform", "outcome"}),
		fanoutInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "publora_fanouts_in_flight",
			Help: "Fan-outs currently executing.",
		}),
	}
	reg.MustRegister(p.publishOutcomes, p.platformAttempts, p.fanoutInFlight)
	return p
}

func (p *Prometheus) PublishOutcome(status string) {
	p.publishOutcomes.WithLabelValues(status).Inc()
}

func (p *Prometheus) PlatformAttempt(platform string, ok bool) {
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	p.platformAttempts.WithLabelValues(platform, outcome).Inc()
}

func (p *Prometheus) FanoutInFlightIncr() { p.fanoutInFlight.Inc() }
func (p *Prometheus) FanoutInFlightDecr() { p.fanoutInFlight.Dec() }
