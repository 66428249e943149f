// Package metrics exposes game counters to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder receives game events. Implementations must be safe for
// concurrent use.
type Recorder interface {
	RoundStarted(difficulty, mode string)
	RoundFinished(difficulty, mode string, won bool, attempts int, elapsed time.Duration)
	GuessRejected(reason string)
	HintUsed(difficulty string)
	SaveFailed()
}

type nop struct{}

// Nop discards every event.
func Nop() Recorder { return nop{} }

func (nop) RoundStarted(string, string)                            {}
func (nop) RoundFinished(string, string, bool, int, time.Duration) {}
func (nop) GuessRejected(string)                                   {}
func (nop) HintUsed(string)                                        {}
func (nop) SaveFailed()                                            {}

type Prometheus struct {
	started  *prometheus.CounterVec
	finished *prometheus.CounterVec
	rejected *prometheus.CounterVec
	hints    *prometheus.CounterVec
	attempts *prometheus.HistogramVec
	duration *prometheus.HistogramVec
	saveErrs prometheus.Counter
}

// NewPrometheus registers the game collectors on reg.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		started: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "numguess",
			Name:      "rounds_started_total",
			Help:      "Rounds started by difficulty and mode.",
		}, []string{"difficulty", "mode"}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "numguess",
			Name:      "rounds_finished_total",
			Help:      "Rounds finished by difficulty, mode and result.",
		}, []string{"difficulty", "mode", "result"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "numguess",
			Name:      "guesses_rejected_total",
			Help:      "Guesses rejected before counting as an attempt.",
		}, []string{"reason"}),
		hints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "numguess",
			Name:      "hints_used_total",
			Help:      "Hints spent by difficulty.",
		}, []string{"difficulty"}),
		attempts: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "numguess",
			Name:      "round_attempts",
			Help:      "Attempts used per finished round.",
			Buckets:   []float64{1, 2, 3, 4, 5, 7, 10},
		}, []string{"result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "numguess",
			Name:      "round_duration_seconds",
			Help:      "Wall-clock duration of finished rounds.",
			Buckets:   []float64{5, 10, 20, 30, 60, 120, 300},
		}, []string{"result"}),
		saveErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "numguess",
			Name:      "profile_save_failures_total",
			Help:      "Profile writes that failed and were dropped.",
		}),
	}
	for _, c := range []prometheus.Collector{p.started, p.finished, p.rejected, p.hints, p.attempts, p.duration, p.saveErrs} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func resultLabel(won bool) string {
	if won {
		return "won"
	}
	return "lost"
}

func (p *Prometheus) RoundStarted(difficulty, mode string) {
	p.started.WithLabelValues(difficulty, mode).Inc()
}

func (p *Prometheus) RoundFinished(difficulty, mode string, won bool, attempts int, elapsed time.Duration) {
	result := resultLabel(won)
	p.finished.WithLabelValues(difficulty, mode, result).Inc()
	p.attempts.WithLabelValues(result).Observe(float64(attempts))
	p.duration.WithLabelValues(result).Observe(elapsed.Seconds())
}

func (p *Prometheus) GuessRejected(reason string) {
	p.rejected.WithLabelValues(reason).Inc()
}

func (p *Prometheus) HintUsed(difficulty string) {
	p.hints.WithLabelValues(difficulty).Inc()
}

func (p *Prometheus) SaveFailed() {
	p.saveErrs.Inc()
}
