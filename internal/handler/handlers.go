// Package handler serves the sign-in, sign-up and dashboard screens.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Schera-ole/wellness/internal/config"
	"github.com/Schera-ole/wellness/internal/dashboard"
	internalerrors "github.com/Schera-ole/wellness/internal/errors"
	middlewareinternal "github.com/Schera-ole/wellness/internal/middleware"
	models "github.com/Schera-ole/wellness/internal/model"
	"github.com/Schera-ole/wellness/internal/repository"
	"github.com/Schera-ole/wellness/internal/service"
	"github.com/Schera-ole/wellness/internal/session"
)

func Router(
	storage repository.Repository,
	sessions *session.Manager,
	accounts *service.AccountService,
	logger *zap.SugaredLogger,
	serverConfig *config.ServerConfig,
) chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RealIP)
	router.Use(middlewareinternal.LoggingMiddleware(logger))
	router.Use(middlewareinternal.GzipMiddleware)
	router.Use(middleware.StripSlashes)
	router.Use(middleware.Timeout(config.RequestTimeout))
	router.Use(middlewareinternal.SessionMiddleware(sessions, logger))

	router.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		PingDatabaseHandler(w, r, storage, logger)
	})
	router.Post("/dashboard/theme", ThemeHandler)

	router.Group(func(r chi.Router) {
		r.Use(middlewareinternal.RedirectSignedIn)
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			render(w, logger, "signin.html", http.StatusOK, authPage{Theme: Theme(r)})
		})
		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			SignInHandler(w, r, sessions, logger, serverConfig)
		})
		r.Get("/signup", func(w http.ResponseWriter, r *http.Request) {
			render(w, logger, "signup.html", http.StatusOK, authPage{Theme: Theme(r)})
		})
		r.Post("/signup", func(w http.ResponseWriter, r *http.Request) {
			SignUpHandler(w, r, sessions, accounts, logger, serverConfig)
		})
		r.Get("/auth/federated", func(w http.ResponseWriter, r *http.Request) {
			FederatedHandler(w, r, sessions, logger)
		})
		r.Get("/auth/callback", func(w http.ResponseWriter, r *http.Request) {
			FederatedCallbackHandler(w, r, sessions, logger, serverConfig)
		})
	})

	router.Group(func(r chi.Router) {
		r.Use(middlewareinternal.RequireSignedIn)
		r.Get("/dashboard", func(w http.ResponseWriter, r *http.Request) {
			DashboardHandler(w, r, accounts, logger)
		})
		r.Post("/dashboard/metrics", func(w http.ResponseWriter, r *http.Request) {
			SaveHandler(w, r, logger)
		})
		r.Post("/dashboard/metrics/{id}/edit", EditHandler)
		r.Post("/dashboard/metrics/{id}/delete", func(w http.ResponseWriter, r *http.Request) {
			DeleteHandler(w, r, logger)
		})
		r.Post("/dashboard/edit/cancel", CancelEditHandler)
		r.Post("/logout", func(w http.ResponseWriter, r *http.Request) {
			LogoutHandler(w, r, sessions, logger)
		})
	})

	router.Get("/api/dashboard", func(w http.ResponseWriter, r *http.Request) {
		StateHandler(w, r, accounts, logger)
	})
	return router
}

func PingDatabaseHandler(w http.ResponseWriter, r *http.Request, storage repository.Repository, logger *zap.SugaredLogger) {
	err := storage.Ping(r.Context())
	if err != nil {
		logger.Errorw("storage ping failed", "error", err)
		http.Error(w, "Failed to connect to storage", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// startSession persists a freshly signed-in client and hands its token to the browser.
func startSession(w http.ResponseWriter, r *http.Request, sessions *session.Manager, client *session.Client, logger *zap.SugaredLogger, serverConfig *config.ServerConfig) bool {
	if err := sessions.Persist(r.Context(), client); err != nil {
		logger.Errorw("failed to persist session", "error", err)
		sessions.Drop(r.Context(), client.Token)
		return false
	}
	setCookie(w, config.SessionCookie, client.Token, serverConfig.SessionTTL)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	return true
}

const sessionFailure = "Could not start a session, please try again."

func SignInHandler(w http.ResponseWriter, r *http.Request, sessions *session.Manager, logger *zap.SugaredLogger, serverConfig *config.ServerConfig) {
	email := r.PostFormValue("email")
	page := authPage{Theme: Theme(r), Email: email}

	client, err := sessions.Open(r.Context())
	if err != nil {
		logger.Errorw("failed to open session", "error", err)
		page.Error = sessionFailure
		render(w, logger, "signin.html", http.StatusInternalServerError, page)
		return
	}
	if _, err := client.Auth.SignInWithCredentials(r.Context(), email, r.PostFormValue("password")); err != nil {
		sessions.Drop(r.Context(), client.Token)
		logger.Infow("sign in failed", "email", email, "error", err)
		page.Error = internalerrors.Message(err)
		render(w, logger, "signin.html", http.StatusUnauthorized, page)
		return
	}
	if !startSession(w, r, sessions, client, logger, serverConfig) {
		page.Error = sessionFailure
		render(w, logger, "signin.html", http.StatusInternalServerError, page)
	}
}

func SignUpHandler(
	w http.ResponseWriter,
	r *http.Request,
	sessions *session.Manager,
	accounts *service.AccountService,
	logger *zap.SugaredLogger,
	serverConfig *config.ServerConfig,
) {
	name, email := r.PostFormValue("name"), r.PostFormValue("email")
	page := authPage{Theme: Theme(r), Name: name, Email: email}

	client, err := sessions.Open(r.Context())
	if err != nil {
		logger.Errorw("failed to open session", "error", err)
		page.Error = sessionFailure
		render(w, logger, "signup.html", http.StatusInternalServerError, page)
		return
	}
	_, err = accounts.SignUp(r.Context(), client.Auth, name, email, r.PostFormValue("password"))
	var se *internalerrors.StoreError
	switch {
	case errors.As(err, &se):
		// the account exists, only the profile is missing
		logger.Warnw("signed up without profile", "email", email, "error", err)
	case err != nil:
		sessions.Drop(r.Context(), client.Token)
		logger.Infow("sign up failed", "email", email, "error", err)
		page.Error = internalerrors.Message(err)
		render(w, logger, "signup.html", http.StatusUnprocessableEntity, page)
		return
	}
	if !startSession(w, r, sessions, client, logger, serverConfig) {
		page.Error = sessionFailure
		render(w, logger, "signup.html", http.StatusInternalServerError, page)
	}
}

// FederatedHandler redirects to the federated provider's consent screen.
func FederatedHandler(w http.ResponseWriter, r *http.Request, sessions *session.Manager, logger *zap.SugaredLogger) {
	client, err := sessions.Open(r.Context())
	if err != nil {
		logger.Errorw("failed to open session", "error", err)
		render(w, logger, "signin.html", http.StatusInternalServerError, authPage{Theme: Theme(r), Error: sessionFailure})
		return
	}
	defer sessions.Drop(r.Context(), client.Token)

	target, verifier, err := client.Auth.FederatedURL(r.Context())
	if err != nil {
		logger.Infow("federated sign in unavailable", "error", err)
		render(w, logger, "signin.html", http.StatusUnauthorized, authPage{Theme: Theme(r), Error: internalerrors.Message(err)})
		return
	}
	if verifier != "" {
		setCookie(w, config.VerifierCookie, verifier, federatedTimeout)
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// FederatedCallbackHandler completes federated sign-in with the returned code.
func FederatedCallbackHandler(w http.ResponseWriter, r *http.Request, sessions *session.Manager, logger *zap.SugaredLogger, serverConfig *config.ServerConfig) {
	var verifier string
	if cookie, err := r.Cookie(config.VerifierCookie); err == nil {
		verifier = cookie.Value
	}
	middlewareinternal.ClearCookie(w, config.VerifierCookie)
	page := authPage{Theme: Theme(r)}

	client, err := sessions.Open(r.Context())
	if err != nil {
		logger.Errorw("failed to open session", "error", err)
		page.Error = sessionFailure
		render(w, logger, "signin.html", http.StatusInternalServerError, page)
		return
	}
	if _, err := client.Auth.SignInWithFederatedProvider(r.Context(), r.URL.Query().Get("code"), verifier); err != nil {
		sessions.Drop(r.Context(), client.Token)
		logger.Infow("federated sign in failed", "error", err)
		page.Error = internalerrors.Message(err)
		render(w, logger, "signin.html", http.StatusUnauthorized, page)
		return
	}
	if !startSession(w, r, sessions, client, logger, serverConfig) {
		page.Error = sessionFailure
		render(w, logger, "signin.html", http.StatusInternalServerError, page)
	}
}

func DashboardHandler(w http.ResponseWriter, r *http.Request, accounts *service.AccountService, logger *zap.SugaredLogger) {
	client := session.FromContext(r.Context())
	flash := takeFlash(w, r)

	dateRange, keep, err := ParseDateRange(r.URL.Query())
	switch {
	case err != nil:
		flash = "Please pick a valid date range."
		err = client.Dashboard.Refresh(r.Context())
	case keep:
		err = client.Dashboard.Refresh(r.Context())
	default:
		err = client.Dashboard.SetFilter(r.Context(), dateRange)
	}
	if err != nil {
		logger.Warnw("failed to refresh dashboard", "error", err)
		flash = internalerrors.Message(err)
	}

	state := client.Dashboard.Snapshot()
	page := dashboardPage{
		Theme: Theme(r),
		Name:  accounts.DisplayName(r.Context(), *client.Auth.Current()),
		Flash: flash,
		State: state,
		Moods: models.Moods,
		Chart: newChart(state.Chart),
	}
	page.Start, page.End = FormatDateRange(state.Filter)
	render(w, logger, "dashboard.html", http.StatusOK, page)
}

func SaveHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger) {
	client := session.FromContext(r.Context())
	draft := models.Draft{
		Steps: r.PostFormValue("steps"),
		Sleep: r.PostFormValue("sleep"),
		Mood:  models.Mood(r.PostFormValue("mood")),
		Notes: r.PostFormValue("notes"),
	}
	if _, err := client.Dashboard.Save(r.Context(), draft); err != nil {
		logger.Warnw("failed to save metric", "error", err)
		setFlash(w, internalerrors.Message(err))
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func EditHandler(w http.ResponseWriter, r *http.Request) {
	client := session.FromContext(r.Context())
	if !client.Dashboard.BeginEditByID(chi.URLParam(r, "id")) {
		setFlash(w, internalerrors.Message(internalerrors.NewStoreError("edit", internalerrors.ErrRecordNotFound)))
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func DeleteHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger) {
	client := session.FromContext(r.Context())
	if err := client.Dashboard.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		logger.Warnw("failed to delete metric", "error", err)
		setFlash(w, internalerrors.Message(err))
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func CancelEditHandler(w http.ResponseWriter, r *http.Request) {
	session.FromContext(r.Context()).Dashboard.CancelEdit()
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// ThemeHandler flips between the light and dark theme.
func ThemeHandler(w http.ResponseWriter, r *http.Request) {
	next := config.ThemeDark
	if Theme(r) == config.ThemeDark {
		next = config.ThemeLight
	}
	setCookie(w, config.ThemeCookie, next, themeLifetime)
	http.Redirect(w, r, localPath(r.PostFormValue("next"), "/dashboard"), http.StatusSeeOther)
}

func LogoutHandler(w http.ResponseWriter, r *http.Request, sessions *session.Manager, logger *zap.SugaredLogger) {
	client := session.FromContext(r.Context())
	if err := client.Auth.SignOut(r.Context()); err != nil {
		logger.Warnw("sign out failed", "error", err)
	}
	if err := sessions.Drop(r.Context(), client.Token); err != nil {
		logger.Errorw("failed to drop session", "error", err)
	}
	middlewareinternal.ClearCookie(w, config.SessionCookie)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type stateResponse struct {
	Name string `json:"name"`
	dashboard.State
}

// StateHandler returns the dashboard state as JSON.
func StateHandler(w http.ResponseWriter, r *http.Request, accounts *service.AccountService, logger *zap.SugaredLogger) {
	client := session.FromContext(r.Context())
	if !client.SignedIn() {
		http.Error(w, "Not signed in", http.StatusUnauthorized)
		return
	}
	resp := stateResponse{
		Name:  accounts.DisplayName(r.Context(), *client.Auth.Current()),
		State: client.Dashboard.Snapshot(),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Errorw("failed to encode state", "error", err)
	}
}
