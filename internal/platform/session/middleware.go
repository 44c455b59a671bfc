package session

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	DefaultCookieName = "pc_session"

	idKey      = "session_id"
	valueKey   = "session_value"
	bindingKey = "session_binding"
)

// ErrNoSession is returned when a request was not routed through Middleware.
var ErrNoSession = errors.New("no session on request")

type binding[T any] struct {
	store *Store[T]
	cfg   CookieConfig
}

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
	// Skipper excludes requests that never touch session state.
	Skipper func(c echo.Context) bool
}

// Middleware loads the session named by the request cookie, creating one
// when it is missing or expired, and stores it on the echo context.
func Middleware[T any](store *Store[T], cfg CookieConfig) echo.MiddlewareFunc {
	if cfg.Name == "" {
		cfg.Name = DefaultCookieName
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}

			var (
				id    string
				value T
				ok    bool
			)
			if cookie, err := c.Cookie(cfg.Name); err == nil {
				id = cookie.Value
				value, ok = store.Get(id)
			}
			if !ok {
				id, value = store.Create()
			}
			setCookie(c, cfg, id)

			c.Set(idKey, id)
			c.Set(valueKey, value)
			c.Set(bindingKey, binding[T]{store: store, cfg: cfg})
			return next(c)
		}
	}
}

// FromContext returns the session value attached by Middleware.
func FromContext[T any](c echo.Context) (T, bool) {
	v, ok := c.Get(valueKey).(T)
	return v, ok
}

func idFromContext(c echo.Context) string {
	id, _ := c.Get(idKey).(string)
	return id
}

// Regenerate deletes the request's session and starts a fresh one under a new
// ID. The response cookie and the context are switched to the new session.
func Regenerate[T any](c echo.Context) (T, error) {
	var zero T
	b, ok := c.Get(bindingKey).(binding[T])
	if !ok {
		return zero, ErrNoSession
	}
	if old := idFromContext(c); old != "" {
		b.store.Delete(old)
	}
	id, value := b.store.Create()
	dropCookie(c, b.cfg.Name)
	setCookie(c, b.cfg, id)

	c.Set(idKey, id)
	c.Set(valueKey, value)
	return value, nil
}

// dropCookie removes an already queued Set-Cookie for name.
func dropCookie(c echo.Context, name string) {
	h := c.Response().Header()
	queued := h.Values(echo.HeaderSetCookie)
	h.Del(echo.HeaderSetCookie)
	for _, v := range queued {
		if !strings.HasPrefix(v, name+"=") {
			h.Add(echo.HeaderSetCookie, v)
		}
	}
}

func setCookie(c echo.Context, cfg CookieConfig, id string) {
	c.SetCookie(&http.Cookie{
		Name:     cfg.Name,
		Value:    id,
		Path:     "/",
		MaxAge:   int(cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
