package handlers

import (
	"log"
	"net/http"

	"github.com/felo/email-organizer/internal/db"
	"github.com/felo/email-organizer/internal/organizer"
	"github.com/felo/email-organizer/internal/query"
)

// Index handles the home page: sign-in, the input form and the organized result
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	if h.cfgErr != nil {
		h.render(w, http.StatusOK, "index.html", h.configErrorData())
		return
	}

	sess, err := h.currentSession(r)
	if err != nil {
		log.Printf("Failed to load session: %v", err)
		http.Error(w, "Failed to load session", http.StatusInternalServerError)
		return
	}

	data, err := h.pageData(r, sess)
	if err != nil {
		log.Printf("Failed to load query: %v", err)
		http.Error(w, "Failed to load results", http.StatusInternalServerError)
		return
	}
	h.render(w, http.StatusOK, "index.html", data)
}

// SetSort stores the session's sort order and returns to the page
func (h *Handlers) SetSort(w http.ResponseWriter, r *http.Request) {
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

	order := organizer.ParseSortOrder(r.PostFormValue("order"))
	if err := h.db.SetSortOrder(sess.ID, string(order)); err != nil {
		log.Printf("Failed to store sort order: %v", err)
		http.Error(w, "Failed to update sort order", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handlers) configErrorData() map[string]interface{} {
	return map[string]interface{}{
		"PageTitle":   "Email Organizer",
		"ConfigError": organizer.UserMessage(h.cfgErr),
	}
}

// pageData builds the template data for a signed-out or signed-in visitor.
// Groups are always derived fresh from the stored result and sort order.
func (h *Handlers) pageData(r *http.Request, sess *db.Session) (map[string]interface{}, error) {
	data := map[string]interface{}{
		"PageTitle": "Email Organizer",
	}

	if sess == nil {
		data["ClientID"] = h.gate.ClientID()
		data["LoginURI"] = h.cfg.PublicURL + "/auth/google"
		data["OAuthEnabled"] = h.gate.OAuthEnabled()
		return data, nil
	}

	snap, err := h.tracker.Snapshot(sess.ID)
	if err != nil {
		return nil, err
	}

	order := organizer.ParseSortOrder(sess.SortOrder)
	groups := organizer.Sort(snap.Result, order).NonEmpty()

	data["Profile"] = sess
	data["State"] = string(snap.State)
	data["Running"] = snap.State == query.Running
	data["HasResult"] = snap.Result != nil
	data["Groups"] = groups
	data["EmailCount"] = groups.EmailCount()
	data["SortOrder"] = string(order)
	data["Error"] = snap.Error
	data["Text"] = ""
	data["InputError"] = ""
	return data, nil
}
