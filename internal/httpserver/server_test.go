package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/gurdle/internal/store"
	"github.com/robalobadob/gurdle/internal/words"
)

type cell struct {
	Char   string `json:"char"`
	Status string `json:"status"`
}

type snap struct {
	GameID   string            `json:"gameId"`
	Created  time.Time         `json:"created"`
	State    string            `json:"state"`
	Attempts int               `json:"attempts"`
	Guess    string            `json:"guess"`
	Grid     [][]cell          `json:"grid"`
	Keyboard map[string]string `json:"keyboard"`
	Error    string            `json:"error"`
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	l, err := words.FromWords([]string{"crane", "stomp", "llama"}, []string{"allow", "react"})
	require.NoError(t, err)
	return New(store.NewMemoryStore(), l, opts)
}

func do(t *testing.T, s *Server, method, path, body string, cookies ...*http.Cookie) (*httptest.ResponseRecorder, snap) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var out snap
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func newGame(t *testing.T, s *Server, secret string) (snap, *http.Cookie) {
	t.Helper()
	body := ""
	if secret != "" {
		body = `{"secret":"` + secret + `"}`
	}
	rec, out := do(t, s, http.MethodPost, "/game/new", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return out, cookies[0]
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, Options{})
	rec, _ := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestNewGame(t *testing.T) {
	s := newTestServer(t, Options{})
	g, cookie := newGame(t, s, "crane")

	assert.NotEmpty(t, g.GameID)
	assert.WithinDuration(t, time.Now(), g.Created, time.Minute)
	assert.Equal(t, "ongoing", g.State)
	assert.Equal(t, 0, g.Attempts)
	require.Len(t, g.Grid, 6)
	assert.Len(t, g.Grid[0], 5)
	assert.Equal(t, cell{"", "unset"}, g.Grid[0][0])
	assert.Equal(t, "gurdle_session", cookie.Name)
	assert.True(t, cookie.HttpOnly)
}

func TestNewGameInvalidSecret(t *testing.T) {
	s := newTestServer(t, Options{})
	rec, out := do(t, s, http.MethodPost, "/game/new", `{"secret":"ab"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_secret", out.Error)

	rec, out = do(t, s, http.MethodPost, "/game/new", `{"secret":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad_json", out.Error)
}

func TestGuessFlow(t *testing.T) {
	s := newTestServer(t, Options{})
	g, _ := newGame(t, s, "allow")
	base := "/game/" + g.GameID

	// A longer word is rejected whole, not cut down to its first letters.
	_, out := do(t, s, http.MethodPost, base+"/guess", `{"guess":"allows"}`)
	assert.Equal(t, "illegal_word", out.State)
	assert.Equal(t, 0, out.Attempts)
	assert.Equal(t, cell{"", "unset"}, out.Grid[0][0])

	rec, out := do(t, s, http.MethodPost, base+"/guess", `{"guess":"LLAMA"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ongoing", out.State)
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, []cell{
		{"l", "wrong_position"},
		{"l", "right_position"},
		{"a", "wrong_position"},
		{"m", "absent"},
		{"a", "absent"},
	}, out.Grid[0])
	assert.Equal(t, "right_position", out.Keyboard["l"])
	assert.Equal(t, "absent", out.Keyboard["m"])

	_, out = do(t, s, http.MethodPost, base+"/guess", `{"guess":"allow"}`)
	assert.Equal(t, "won", out.State)
	assert.Equal(t, 2, out.Attempts)

	// Finished games ignore further input.
	_, out = do(t, s, http.MethodPost, base+"/guess", `{"guess":"crane"}`)
	assert.Equal(t, "won", out.State)
	assert.Equal(t, 2, out.Attempts)
}

func TestCharByCharAndIllegal(t *testing.T) {
	s := newTestServer(t, Options{})
	g, _ := newGame(t, s, "crane")
	base := "/game/" + g.GameID

	do(t, s, http.MethodPost, base+"/char", `{"char":"a"}`)
	_, out := do(t, s, http.MethodPost, base+"/char", `{"char":"B"}`)
	assert.Equal(t, "ab", out.Guess)

	rec, out := do(t, s, http.MethodPost, base+"/char", `{"char":"xy"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "one_char_expected", out.Error)

	_, out = do(t, s, http.MethodPost, base+"/confirm", "")
	assert.Equal(t, "illegal_word", out.State)
	assert.Equal(t, 0, out.Attempts)
	assert.Equal(t, "", out.Guess)

	for _, ch := range "stomx" {
		do(t, s, http.MethodPost, base+"/char", `{"char":"`+string(ch)+`"}`)
	}
	_, out = do(t, s, http.MethodPost, base+"/backspace", "")
	assert.Equal(t, "stom", out.Guess)
	do(t, s, http.MethodPost, base+"/char", `{"char":"p"}`)
	_, out = do(t, s, http.MethodPost, base+"/confirm", "")
	assert.Equal(t, "ongoing", out.State)
	assert.Equal(t, 1, out.Attempts)
}

func TestCurrentSessionFromCookie(t *testing.T) {
	s := newTestServer(t, Options{JWTSecret: "test-secret"})
	g, cookie := newGame(t, s, "crane")

	rec, out := do(t, s, http.MethodGet, "/game/current", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, g.GameID, out.GameID)
	assert.True(t, g.Created.Equal(out.Created), "creation time is stable across reads")

	rec, out = do(t, s, http.MethodGet, "/game/current", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "no_session", out.Error)

	forged := *cookie
	forged.Value += "x"
	rec, _ = do(t, s, http.MethodGet, "/game/current", "", &forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSecretRestartAndDelete(t *testing.T) {
	s := newTestServer(t, Options{})
	g, _ := newGame(t, s, "crane")
	base := "/game/" + g.GameID

	rec, _ := do(t, s, http.MethodGet, base+"/secret", "")
	assert.JSONEq(t, `{"gameId":"`+g.GameID+`","secret":"crane"}`, rec.Body.String())

	do(t, s, http.MethodPost, base+"/guess", `{"guess":"stomp"}`)
	_, out := do(t, s, http.MethodPost, base+"/new", `{"secret":"llama"}`)
	assert.Equal(t, 0, out.Attempts)
	assert.Equal(t, g.GameID, out.GameID)

	rec, _ = do(t, s, http.MethodGet, base+"/secret", "")
	assert.Contains(t, rec.Body.String(), `"llama"`)

	rec, out = do(t, s, http.MethodPost, base+"/new", `{"secret":"toolong"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_secret", out.Error)

	rec, _ = do(t, s, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec, out = do(t, s, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "game_not_found", out.Error)
}

func TestFirstSecretIsUsedOnce(t *testing.T) {
	s := newTestServer(t, Options{FirstSecret: "LLAMA"})

	g, _ := newGame(t, s, "")
	rec, _ := do(t, s, http.MethodGet, "/game/"+g.GameID+"/secret", "")
	assert.Contains(t, rec.Body.String(), `"llama"`)

	// Later games draw from the word list.
	for i := 0; i < 3; i++ {
		g, _ = newGame(t, s, "")
		rec, _ = do(t, s, http.MethodGet, "/game/"+g.GameID+"/secret", "")
		var out struct{ Secret string }
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.Contains(t, []string{"crane", "stomp", "llama"}, out.Secret)
	}
}

func TestNotFoundAndStats(t *testing.T) {
	s := newTestServer(t, Options{})
	rec, out := do(t, s, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", out.Error)

	newGame(t, s, "crane")
	rec, _ = do(t, s, http.MethodGet, "/debug/words", "")
	assert.JSONEq(t, `{"answers":3,"allowed":5,"games":1}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, Options{})
	g, _ := newGame(t, s, "crane")
	do(t, s, http.MethodPost, "/game/"+g.GameID+"/guess", `{"guess":"crane"}`)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	body := rec.Body.String()
	assert.Contains(t, body, "gurdle_games_started_total 1")
	assert.Contains(t, body, `gurdle_games_finished_total{outcome="won"} 1`)
}

func TestEventStream(t *testing.T) {
	s := newTestServer(t, Options{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	g, _ := newGame(t, s, "crane")
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/game/" + g.GameID + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() (string, snap) {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg struct {
			Reason string `json:"reason"`
			Game   snap   `json:"game"`
		}
		require.NoError(t, conn.ReadJSON(&msg))
		return msg.Reason, msg.Game
	}

	reason, first := read()
	assert.Equal(t, "subscribed", reason)
	assert.Equal(t, "ongoing", first.State)

	resp, err := http.Post(srv.URL+"/game/"+g.GameID+"/guess", "application/json", strings.NewReader(`{"guess":"zzzzz"}`))
	require.NoError(t, err)
	resp.Body.Close()
	resp, err = http.Post(srv.URL+"/game/"+g.GameID+"/guess", "application/json", strings.NewReader(`{"guess":"crane"}`))
	require.NoError(t, err)
	resp.Body.Close()

	reason, ev := read()
	assert.Equal(t, "guess submitted", reason)
	assert.Equal(t, "illegal_word", ev.State)

	reason, ev = read()
	assert.Equal(t, "guess submitted", reason)
	assert.Equal(t, "won", ev.State)
	assert.Equal(t, 1, ev.Attempts)
}

func TestStartStopsOnCancel(t *testing.T) {
	s := newTestServer(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx, "127.0.0.1:0") }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
