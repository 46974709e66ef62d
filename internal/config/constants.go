// Package config provides configuration for the wellness tracker server.
package config

import "time"

// Identity backends.
const (
	AuthBackendLocal    = "local"
	AuthBackendSupabase = "supabase"
)

// DefaultSessionTTL is how long a signed-in session survives without a new sign-in.
const DefaultSessionTTL = 7 * 24 * time.Hour

// SessionSweepInterval is how often idle sessions are released.
const SessionSweepInterval = time.Minute

// Cookies.
const (
	SessionCookie  = "wellness_session"
	VerifierCookie = "wellness_pkce"
	ThemeCookie    = "wellness_theme"
	FlashCookie    = "wellness_flash"
)

// Themes.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// RequestTimeout bounds every HTTP request.
const RequestTimeout = 15 * time.Second
