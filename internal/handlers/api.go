package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/felo/email-organizer/internal/organizer"
)

type resultResponse struct {
	State     string           `json:"state"`
	SortOrder string           `json:"sortOrder"`
	Groups    organizer.Result `json:"groups"`
	Error     string           `json:"error,omitempty"`
}

// Result returns the current result in display order as JSON, without
// empty groups.
// ?sort= overrides the session's order for this response only.
func (h *Handlers) Result(w http.ResponseWriter, r *http.Request) {
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

	snap, err := h.tracker.Snapshot(sess.ID)
	if err != nil {
		log.Printf("Failed to load query: %v", err)
		http.Error(w, "Failed to load results", http.StatusInternalServerError)
		return
	}

	order := organizer.ParseSortOrder(sess.SortOrder)
	if s := r.URL.Query().Get("sort"); s != "" {
		order = organizer.ParseSortOrder(s)
	}

	resp := resultResponse{
		State:     string(snap.State),
		SortOrder: string(order),
		Groups:    organizer.Sort(snap.Result, order).NonEmpty(),
		Error:     snap.Error,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Failed to encode result: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}
