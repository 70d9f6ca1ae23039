package httpserver

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/gurdle/internal/game"
)

const (
	eventBuffer  = 32
	writeTimeout = 5 * time.Second
	reasonHello  = "subscribed"
)

// eventMsg is one websocket frame: the notification reason plus the state
// the engine was in when it was published.
type eventMsg struct {
	Reason string   `json:"reason"`
	Game   snapshot `json:"game"`
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || origin == s.opts.ClientOrigin {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && u.Host == r.Host
		},
	}
}

// handleEvents streams every notification of the session's engine.
// The first frame carries the current snapshot. A client that falls more
// than eventBuffer frames behind is disconnected; it can reconnect and
// resume from the fresh snapshot.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	events := make(chan eventMsg, eventBuffer)
	overflow := make(chan struct{})
	var once sync.Once

	var remove func()
	_ = sess.Do(func(e *game.Engine) error {
		events <- eventMsg{Reason: reasonHello, Game: takeSnapshot(sess, e)}
		remove = e.AddObserver(func(e *game.Engine, reason string) {
			select {
			case events <- eventMsg{Reason: reason, Game: takeSnapshot(sess, e)}:
			default:
				once.Do(func() { close(overflow) })
			}
		})
		return nil
	})
	defer func() {
		_ = sess.Do(func(*game.Engine) error {
			remove()
			return nil
		})
	}()

	// Drain client frames so close and ping messages are processed.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	log.Debug().Str("gameId", sess.ID).Msg("event stream opened")
	for {
		select {
		case ev := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				log.Debug().Err(err).Str("gameId", sess.ID).Msg("event stream write")
				return
			}
		case <-overflow:
			log.Warn().Str("gameId", sess.ID).Msg("event stream too slow; closing")
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too slow"),
				time.Now().Add(writeTimeout))
			return
		case <-closed:
			return
		}
	}
}
