// internal/httpserver/session.go
//
// Session resolution for game routes.
//   - POST /game/new hands out an HS256 JWT cookie whose "gid" claim names
//     the caller's game, so browsers can use "/game/current/...".
//   - withSession resolves "{id}" (or "current") to a *store.Session and
//     stores it in the request context.

package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/robalobadob/gurdle/internal/store"
)

const (
	currentID  = "current"
	sessionTTL = 7 * 24 * time.Hour
)

// ctxSessionKey is the context key type for the resolved session.
type ctxSessionKey struct{}

func sessionFrom(ctx context.Context) *store.Session {
	s, _ := ctx.Value(ctxSessionKey{}).(*store.Session)
	return s
}

// withSession loads the session named by the URL, or by the cookie when
// the URL says "current".
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == currentID {
			var err error
			if id, err = s.sessionIDFromRequest(r); err != nil {
				writeError(w, http.StatusUnauthorized, "no_session")
				return
			}
		}
		sess, err := s.store.Get(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "game_not_found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "lookup_failed")
			return
		}
		ctx := context.WithValue(r.Context(), ctxSessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// signSession creates an HS256 JWT naming the game.
func (s *Server) signSession(gameID string, now time.Time) (string, time.Time, error) {
	exp := now.Add(sessionTTL)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"gid": gameID,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	})
	ss, err := t.SignedString([]byte(s.opts.JWTSecret))
	return ss, exp, err
}

// parseSession validates a token and returns its game ID.
func (s *Server) parseSession(tok string) (string, error) {
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.opts.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("parse session token: %w", err)
	}
	if !t.Valid {
		return "", errors.New("invalid session token")
	}
	gid, _ := claims["gid"].(string)
	if gid == "" {
		return "", errors.New("session token without game id")
	}
	return gid, nil
}

// sessionIDFromRequest reads the token from "Authorization: Bearer" or the
// session cookie.
func (s *Server) sessionIDFromRequest(r *http.Request) (string, error) {
	tok := ""
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		tok = strings.TrimSpace(a[7:])
	} else if c, err := r.Cookie(s.opts.CookieName); err == nil {
		tok = c.Value
	}
	if tok == "" {
		return "", errors.New("no session token")
	}
	return s.parseSession(tok)
}

// setSessionCookie writes the session cookie with appropriate security attributes.
func (s *Server) setSessionCookie(w http.ResponseWriter, gameID string) error {
	tok, exp, err := s.signSession(gameID, time.Now())
	if err != nil {
		return err
	}
	sameSite := http.SameSiteLaxMode
	if s.opts.Secure {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    tok,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: sameSite,
		Expires:  exp,
	})
	return nil
}
