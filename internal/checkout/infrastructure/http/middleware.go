package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const (
	userHeader    = "X-User-ID"
	roleHeader    = "X-User-Role"
	sessionCookie = "session_id"
	roleAdmin     = "admin"
)

type ctxKey int

const (
	userKey ctxKey = iota
	roleKey
	sessionKey
)

// identity trusts the upstream auth layer for who the caller is.
func identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), userKey, r.Header.Get(userHeader))
		ctx = context.WithValue(ctx, roleKey, r.Header.Get(roleHeader))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// session makes sure every shopper carries a session cookie.
func session(ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
				id = c.Value
			} else {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     sessionCookie,
					Value:    id,
					Path:     "/",
					MaxAge:   int(ttl.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, id)))
		})
	}
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID(r) == "" {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "login required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID(r) == "" || r.Context().Value(roleKey) != roleAdmin {
			writeJSON(w, http.StatusForbidden, errorBody{Error: "admin only"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func userID(r *http.Request) string {
	v, _ := r.Context().Value(userKey).(string)
	return v
}

func sessionID(r *http.Request) string {
	v, _ := r.Context().Value(sessionKey).(string)
	return v
}
