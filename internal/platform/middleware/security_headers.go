package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// googleIdentityOrigin hosts the sign-in widget script, iframe and styles.
const googleIdentityOrigin = "https://accounts.google.com"

// contentSecurityPolicy allows same-origin assets plus the Google sign-in
// widget, and profile pictures served from googleusercontent.
var contentSecurityPolicy = strings.Join([]string{
	"default-src 'self'",
	"script-src 'self' " + googleIdentityOrigin + "/gsi/client",
	"frame-src " + googleIdentityOrigin + "/gsi/",
	"connect-src 'self' " + googleIdentityOrigin + "/gsi/",
	"style-src 'self' " + googleIdentityOrigin + "/gsi/style",
	"img-src 'self' https://*.googleusercontent.com data:",
	"form-action 'self'",
	"frame-ancestors 'none'",
}, "; ")

// SecurityHeaders sets security response headers on every page. Pages carry
// patient data, so nothing is cached.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()

			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-XSS-Protection", "0")
			h.Set("Content-Security-Policy", contentSecurityPolicy)
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			// The sign-in popup needs to talk back to this window.
			h.Set("Cross-Origin-Opener-Policy", "same-origin-allow-popups")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			h.Set("Cache-Control", "no-store")

			return next(c)
		}
	}
}
