package handler

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Schera-ole/wellness/internal/config"
	middlewareinternal "github.com/Schera-ole/wellness/internal/middleware"
	models "github.com/Schera-ole/wellness/internal/model"
)

const (
	dateLayout = time.DateOnly

	// federatedTimeout bounds the round trip to the federated provider
	federatedTimeout = 10 * time.Minute
	themeLifetime    = 365 * 24 * time.Hour
)

// ParseDateRange reads the start and end query parameters. keep is true when
// neither parameter is present and the current filter should stay. Both
// parameters present but not both set clears the filter. The end day is
// included up to its last instant.
func ParseDateRange(query url.Values) (dateRange *models.DateRange, keep bool, err error) {
	if !query.Has("start") && !query.Has("end") {
		return nil, true, nil
	}
	startValue, endValue := query.Get("start"), query.Get("end")
	if startValue == "" || endValue == "" {
		return nil, false, nil
	}
	start, err := time.Parse(dateLayout, startValue)
	if err != nil {
		return nil, false, err
	}
	end, err := time.Parse(dateLayout, endValue)
	if err != nil {
		return nil, false, err
	}
	r := &models.DateRange{Start: start, End: end.Add(24*time.Hour - time.Nanosecond)}
	if err := r.Validate(); err != nil {
		return nil, false, err
	}
	return r, false, nil
}

// FormatDateRange is the inverse of ParseDateRange for the filter inputs.
func FormatDateRange(dateRange *models.DateRange) (start, end string) {
	if dateRange == nil {
		return "", ""
	}
	return dateRange.Start.Format(dateLayout), dateRange.End.Format(dateLayout)
}

func setCookie(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Theme returns the theme chosen by the theme cookie, light by default.
func Theme(r *http.Request) string {
	if cookie, err := r.Cookie(config.ThemeCookie); err == nil && cookie.Value == config.ThemeDark {
		return config.ThemeDark
	}
	return config.ThemeLight
}

func setFlash(w http.ResponseWriter, message string) {
	setCookie(w, config.FlashCookie, url.QueryEscape(message), time.Minute)
}

// takeFlash returns and clears the pending flash message.
func takeFlash(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(config.FlashCookie)
	if err != nil {
		return ""
	}
	middlewareinternal.ClearCookie(w, config.FlashCookie)
	message, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return ""
	}
	return message
}

// localPath accepts only same-site absolute paths as redirect targets.
func localPath(target, fallback string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return fallback
	}
	return target
}
