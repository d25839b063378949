package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/felo/email-organizer/internal/auth"
	"github.com/felo/email-organizer/internal/config"
	"github.com/felo/email-organizer/internal/db"
	"github.com/felo/email-organizer/internal/extract"
	"github.com/felo/email-organizer/internal/handlers"
	"github.com/felo/email-organizer/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type scriptedModel struct {
	responses []string
	calls     int
}

func (m *scriptedModel) GenerateJSON(context.Context, string, *genai.Schema) (string, error) {
	resp := m.responses[m.calls]
	m.calls++
	return resp, nil
}

type stubGate struct{}

func (stubGate) ClientID() string   { return "client-123" }
func (stubGate) OAuthEnabled() bool { return false }
func (stubGate) VerifyCredential(context.Context, string) (auth.Profile, error) {
	return auth.Profile{Name: "Ada", Email: "ada@example.com", SubjectID: "42"}, nil
}
func (stubGate) LoginURL() (string, error) { return "", auth.ErrOAuthDisabled }
func (stubGate) Exchange(context.Context, string, string) (auth.Profile, error) {
	return auth.Profile{}, auth.ErrOAuthDisabled
}

const pastedText = `From: Alice <a@x.com>
Date: Mon, 1 Jul 2024 09:00:00 +0000
Subject: Kickoff

From: Alice <a@x.com>
Date: Mon, 15 Jul 2024 09:00:00 +0000
Subject: Review

From: Bob <b@y.com>
Date: Wed, 10 Jul 2024 09:00:00 +0000
Subject: Budget`

const modelAnswer = `[
 {"senderName":"Bob","senderEmail":"b@y.com","emails":[{"subject":"Budget","date":"2024-07-10","summary":"Budget."}]},
 {"senderName":"Alice","senderEmail":"a@x.com","emails":[
   {"subject":"Kickoff","date":"2024-07-01","summary":"Kickoff."},
   {"subject":"Review","date":"2024-07-15","summary":"Review."}]}
]`

// TestEndToEndWorkflow tests organize, sort, delete and failure through the router
func TestEndToEndWorkflow(t *testing.T) {
	database := db.SetupTestDB(t)
	defer db.CleanupTestDB(t, database)

	cfg := config.Default()
	cfg.GeminiAPIKey = "key"
	cfg.GoogleClientID = "client-123"

	model := &scriptedModel{responses: []string{modelAnswer, `{"groups": []}`}}
	h := handlers.New(database, cfg, stubGate{}, extract.New(model))
	require.NoError(t, h.LoadTemplates(web.Assets))

	router, err := newRouter(h)
	require.NoError(t, err)

	sess := db.CreateTestSession(t, database, "ada@example.com")
	cookie := &http.Cookie{Name: "session_id", Value: sess.ID}

	do := func(method, target string, form url.Values) *httptest.ResponseRecorder {
		var req *http.Request
		if form != nil {
			req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		} else {
			req = httptest.NewRequest(method, target, nil)
		}
		req.AddCookie(cookie)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	result := func() map[string]interface{} {
		w := do(http.MethodGet, "/api/result", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var out map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		return out
	}

	// Step 1: organize pasted text
	w := do(http.MethodPost, "/organize", url.Values{"text": {pastedText}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, 1, model.calls)

	// Step 2: newest first puts a@x.com on top with 07-15 first
	var resp struct {
		State  string `json:"state"`
		Groups []struct {
			SenderEmail string `json:"senderEmail"`
			Emails      []struct {
				Subject string `json:"subject"`
			} `json:"emails"`
		} `json:"groups"`
	}
	w = do(http.MethodGet, "/api/result", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "succeeded", resp.State)
	require.Len(t, resp.Groups, 2)
	assert.Equal(t, "a@x.com", resp.Groups[0].SenderEmail)
	assert.Equal(t, "Review", resp.Groups[0].Emails[0].Subject)
	assert.Equal(t, "Kickoff", resp.Groups[0].Emails[1].Subject)

	// Step 3: the page renders the same order
	w = do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Less(t, strings.Index(body, "Review"), strings.Index(body, "Kickoff"))

	// Step 4: delete Bob's only email; the group disappears
	w = do(http.MethodPost, "/emails/delete", url.Values{"sender": {"b@y.com"}, "index": {"0"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	groups := result()["groups"].([]interface{})
	assert.Len(t, groups, 1)

	// Step 5: a JSON object answer fails and clears the prior result
	w = do(http.MethodPost, "/organize", url.Values{"text": {pastedText}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, 2, model.calls)

	out := result()
	assert.Equal(t, "failed", out["state"])
	assert.Nil(t, out["groups"])
	assert.Equal(t, "Could not organize emails. Please check the input and try again.", out["error"])

	// Step 6: static assets are served from the embedded filesystem
	w = do(http.MethodGet, "/static/app.css", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestMissingCredentialWorkflow tests that the input surface never appears
func TestMissingCredentialWorkflow(t *testing.T) {
	database := db.SetupTestDB(t)
	defer db.CleanupTestDB(t, database)

	cfg := config.Default()
	cfg.GoogleClientID = "client-123"

	h := handlers.New(database, cfg, stubGate{}, extract.New(nil))
	require.NoError(t, h.LoadTemplates(web.Assets))
	router, err := newRouter(h)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "GEMINI_API_KEY")
	assert.NotContains(t, w.Body.String(), `action="/organize"`)
}
