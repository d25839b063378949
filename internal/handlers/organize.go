package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/felo/email-organizer/internal/organizer"
	"github.com/felo/email-organizer/internal/parser"
	"github.com/felo/email-organizer/internal/query"
)

const maxUploadBytes = 10 << 20

// Organize runs one extraction for the pasted text and uploaded .eml files
func (h *Handlers) Organize(w http.ResponseWriter, r *http.Request) {
	if h.cfgErr != nil {
		h.render(w, http.StatusServiceUnavailable, "index.html", h.configErrorData())
		return
	}

	sess, err := h.currentSession(r)
	if err != nil {
		log.Printf("Failed to load session: %v", err)
		http.Error(w, "Failed to load session", http.StatusInternalServerError)
		return
	}
	if sess == nil {
		http.Error(w, "Sign in required", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	text, err := collectInput(r)
	if err != nil {
		h.renderInputError(w, r, http.StatusBadRequest, organizer.UserMessage(err), r.FormValue("text"))
		return
	}
	if strings.TrimSpace(text) == "" {
		h.renderInputError(w, r, http.StatusBadRequest, organizer.MsgEmptyInput, text)
		return
	}

	// the model call runs to completion even if the browser goes away
	ctx := context.WithoutCancel(r.Context())
	err = h.tracker.Run(ctx, sess.ID, text, h.extractor.Extract)
	switch {
	case err == nil:
	case errors.Is(err, query.ErrBusy):
		http.Error(w, "An extraction is already running", http.StatusConflict)
		return
	case organizer.KindOf(err) == organizer.KindValidation:
		h.renderInputError(w, r, http.StatusBadRequest, organizer.UserMessage(err), text)
		return
	case organizer.KindOf(err) == organizer.KindConfiguration:
		h.render(w, http.StatusServiceUnavailable, "index.html", map[string]interface{}{
			"PageTitle":   "Email Organizer",
			"ConfigError": organizer.UserMessage(err),
		})
		return
	case organizer.KindOf(err) == organizer.KindExtraction:
		// stored as Failed and shown on the page
	default:
		log.Printf("Extraction run failed: %v", err)
		http.Error(w, "Failed to organize emails", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// collectInput joins the pasted text with the text of every uploaded message
func collectInput(r *http.Request) (string, error) {
	parts := []string{r.FormValue("text")}

	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["files"] {
			f, err := fh.Open()
			if err != nil {
				return "", unreadable(fh.Filename)
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return "", unreadable(fh.Filename)
			}
			if len(strings.TrimSpace(string(data))) == 0 {
				continue
			}
			flat, err := parser.FlattenEML(data)
			if err != nil {
				return "", organizer.ValidationError(fmt.Sprintf("Could not read %s as an email file.", fh.Filename))
			}
			parts = append(parts, flat)
		}
	}

	nonEmpty := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, strings.TrimSpace(p))
		}
	}
	return strings.Join(nonEmpty, "\n\n---\n\n"), nil
}

func unreadable(name string) error {
	return organizer.ValidationError(fmt.Sprintf("Could not read %s.", name))
}

func (h *Handlers) renderInputError(w http.ResponseWriter, r *http.Request, status int, message, text string) {
	sess, err := h.currentSession(r)
	if err != nil || sess == nil {
		http.Error(w, message, status)
		return
	}
	data, err := h.pageData(r, sess)
	if err != nil {
		http.Error(w, message, status)
		return
	}
	data["InputError"] = message
	data["Text"] = text
	h.render(w, status, "index.html", data)
}

// DeleteEmail removes one displayed email from the current result
func (h *Handlers) DeleteEmail(w http.ResponseWriter, r *http.Request) {
	sess, err := h.currentSession(r)
	if err != nil {
		log.Printf("Failed to load session: %v", err)
		http.Error(w, "Failed to load session", http.StatusInternalServerError)
		return
	}
	if sess == nil {
		http.Error(w, "Sign in required", http.StatusUnauthorized)
		return
	}

	sender := r.PostFormValue("sender")
	index, err := strconv.Atoi(r.PostFormValue("index"))
	if err != nil {
		http.Error(w, "Invalid email index", http.StatusBadRequest)
		return
	}

	_, err = h.tracker.Delete(sess.ID, sender, index, organizer.ParseSortOrder(sess.SortOrder))
	switch {
	case err == nil:
	case errors.Is(err, organizer.ErrIndexOutOfRange):
		http.Error(w, "Email not found", http.StatusBadRequest)
		return
	case errors.Is(err, query.ErrNotSucceeded):
		http.Error(w, "No organized emails to delete from", http.StatusConflict)
		return
	default:
		log.Printf("Failed to delete email: %v", err)
		http.Error(w, "Failed to delete email", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
