// Package metrics exports engine activity as Prometheus counters.
// Collectors are fed by an engine observer, so they see exactly the
// notifications a presentation layer sees.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/robalobadob/gurdle/internal/game"
)

// Metrics holds the gurdle collectors.
type Metrics struct {
	GamesStarted  prometheus.Counter
	Guesses       *prometheus.CounterVec // label result: accepted | illegal
	GamesFinished *prometheus.CounterVec // label outcome: won | lost
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		GamesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gurdle",
			Name:      "games_started_total",
			Help:      "Games started.",
		}),
		Guesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gurdle",
			Name:      "guesses_total",
			Help:      "Submitted guesses by result.",
		}, []string{"result"}),
		GamesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gurdle",
			Name:      "games_finished_total",
			Help:      "Finished games by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.GamesStarted, m.Guesses, m.GamesFinished)
	return m
}

// Observe attaches m to e. The returned func detaches it.
func (m *Metrics) Observe(e *game.Engine) (remove func()) {
	return e.AddObserver(m.record)
}

func (m *Metrics) record(e *game.Engine, reason string) {
	switch reason {
	case game.ReasonNewGame:
		m.GamesStarted.Inc()
	case game.ReasonGuessSubmitted:
		switch e.GameState() {
		case game.StateIllegalWord:
			m.Guesses.WithLabelValues("illegal").Inc()
			return
		case game.StateWon:
			m.GamesFinished.WithLabelValues("won").Inc()
		case game.StateLost:
			m.GamesFinished.WithLabelValues("lost").Inc()
		}
		m.Guesses.WithLabelValues("accepted").Inc()
	}
}
