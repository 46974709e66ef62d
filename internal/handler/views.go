package handler

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"github.com/Schera-ole/wellness/internal/dashboard"
	models "github.com/Schera-ole/wellness/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

var views = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type authPage struct {
	Theme string
	Error string
	Name  string
	Email string
}

type dashboardPage struct {
	Theme string
	Name  string
	Flash string
	State dashboard.State
	Moods []models.Mood
	Chart chartView

	// Start and End fill the date filter inputs
	Start string
	End   string
}

func render(w http.ResponseWriter, logger *zap.SugaredLogger, name string, status int, data any) {
	var buf bytes.Buffer
	if err := views.ExecuteTemplate(&buf, name, data); err != nil {
		logger.Errorw("failed to render view", "view", name, "error", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
