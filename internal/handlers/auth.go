package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/felo/email-organizer/internal/auth"
	"github.com/felo/email-organizer/internal/db"
)

// SignInGoogle receives the credential posted by the Google sign-in button
func (h *Handlers) SignInGoogle(w http.ResponseWriter, r *http.Request) {
	if h.cfgErr != nil {
		http.Error(w, "Sign-in is not configured", http.StatusServiceUnavailable)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid sign-in request", http.StatusBadRequest)
		return
	}
	if err := auth.CheckCSRF(r); err != nil {
		http.Error(w, "Invalid sign-in request", http.StatusBadRequest)
		return
	}

	profile, err := h.gate.VerifyCredential(r.Context(), r.PostFormValue("credential"))
	if err != nil {
		log.Printf("Sign-in rejected: %v", err)
		http.Error(w, "Sign-in failed", http.StatusUnauthorized)
		return
	}

	h.startSession(w, r, profile)
}

// Login redirects to Google's consent page
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if h.cfgErr != nil || !h.gate.OAuthEnabled() {
		http.NotFound(w, r)
		return
	}
	url, err := h.gate.LoginURL()
	if err != nil {
		log.Printf("Failed to build login URL: %v", err)
		http.Error(w, "Sign-in failed", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// OAuthCallback completes the redirect sign-in flow
func (h *Handlers) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	if h.cfgErr != nil || !h.gate.OAuthEnabled() {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	if q.Get("error") != "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	profile, err := h.gate.Exchange(r.Context(), q.Get("code"), q.Get("state"))
	if err != nil {
		log.Printf("h.gate.Exchange failed: %v", err)
		status := http.StatusUnauthorized
		if errors.Is(err, auth.ErrInvalidState) {
			status = http.StatusBadRequest
		}
		http.Error(w, "Unable to authorize provided code", status)
		return
	}

	h.startSession(w, r, profile)
}

func (h *Handlers) startSession(w http.ResponseWriter, r *http.Request, p auth.Profile) {
	sess, err := h.db.CreateSession(&db.Session{
		SubjectID:  p.SubjectID,
		Name:       p.Name,
		Email:      p.Email,
		PictureURL: p.PictureURL,
	})
	if err != nil {
		log.Printf("Failed to create session: %v", err)
		http.Error(w, "Sign-in failed", http.StatusInternalServerError)
		return
	}

	setSessionCookie(w, sess.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// SignOut forgets the profile and the organized result
func (h *Handlers) SignOut(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		if err := h.db.DeleteSession(cookie.Value); err != nil {
			log.Printf("Failed to delete session: %v", err)
		}
	}
	clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
