package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/gurdle/internal/game"
	"github.com/robalobadob/gurdle/internal/words"
)

func submit(e *game.Engine, w string) {
	for _, r := range w {
		e.EnterGuessChar(r)
	}
	e.ConfirmGuess()
}

func TestObserveCountsEngineEvents(t *testing.T) {
	m := New(prometheus.NewRegistry())
	l, err := words.FromWords([]string{"crane", "stomp"}, nil)
	require.NoError(t, err)
	e := game.New(l)
	remove := m.Observe(e)

	require.NoError(t, e.NewGameWith("crane"))
	submit(e, "ab")
	submit(e, "stomp")
	submit(e, "crane")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.GamesStarted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Guesses.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Guesses.WithLabelValues("illegal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GamesFinished.WithLabelValues("won")))

	remove()
	require.NoError(t, e.NewGameWith("stomp"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GamesStarted))
}
