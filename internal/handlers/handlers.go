package handlers

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"log"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/felo/email-organizer/internal/auth"
	"github.com/felo/email-organizer/internal/config"
	"github.com/felo/email-organizer/internal/db"
	"github.com/felo/email-organizer/internal/organizer"
	"github.com/felo/email-organizer/internal/query"
)

const sessionCookie = "session_id"

// SignInGate verifies Google sign-ins
type SignInGate interface {
	ClientID() string
	OAuthEnabled() bool
	VerifyCredential(ctx context.Context, credential string) (auth.Profile, error)
	LoginURL() (string, error)
	Exchange(ctx context.Context, code, state string) (auth.Profile, error)
}

// Extractor turns pasted text into grouped emails
type Extractor interface {
	Extract(ctx context.Context, text string) (organizer.Result, error)
}

// Handlers holds all HTTP handlers and their dependencies
type Handlers struct {
	db        *db.DB
	cfg       *config.Config
	cfgErr    error
	gate      SignInGate
	extractor Extractor
	tracker   *query.Tracker
	templates *template.Template
}

// New creates a new Handlers instance. A configuration error is kept and
// shown instead of the input surface. gate may be nil when no client id is set.
func New(database *db.DB, cfg *config.Config, gate SignInGate, ex Extractor) *Handlers {
	h := &Handlers{
		db:        database,
		cfg:       cfg,
		cfgErr:    cfg.Validate(),
		gate:      gate,
		extractor: ex,
	}
	if database != nil {
		h.tracker = query.NewTracker(database)
	}
	if h.cfgErr == nil && gate == nil {
		h.cfgErr = organizer.ConfigurationError("Google sign-in is not available. Check GOOGLE_CLIENT_ID and restart.")
	}
	return h
}

// LoadTemplates loads HTML templates from embedded filesystem
func (h *Handlers) LoadTemplates(embeddedFiles embed.FS) error {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(embeddedFiles,
		"templates/*.html",
		"templates/components/*.html",
	)
	if err != nil {
		return err
	}
	h.templates = tmpl
	return nil
}

var templateFuncs = template.FuncMap{
	"emailDate": emailDate,
}

// emailDate renders an extracted date with a relative hint
func emailDate(s string) string {
	t, ok := organizer.ParseDate(s)
	if !ok {
		if s == "" {
			return "Unknown date"
		}
		return s
	}
	return t.Format("Jan 2, 2006") + " · " + humanize.Time(t)
}

// currentSession returns the signed-in session or nil
func (h *Handlers) currentSession(r *http.Request) (*db.Session, error) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}
	s, err := h.db.GetSession(cookie.Value)
	if errors.Is(err, db.ErrSessionNotFound) {
		return nil, nil
	}
	return s, err
}

func setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// render writes a template with status
func (h *Handlers) render(w http.ResponseWriter, status int, name string, data map[string]interface{}) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
