package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/felo/email-organizer/internal/organizer"
)

var (
	ErrNotJSON  = errors.New("response is not valid JSON")
	ErrNotArray = errors.New("response top-level value is not an array")
)

// wire shapes use pointers so missing and null fields can be told apart from ""
type wireEmail struct {
	Subject *string `json:"subject"`
	Date    *string `json:"date"`
	Summary *string `json:"summary"`
}

type wireGroup struct {
	SenderName  *string      `json:"senderName"`
	SenderEmail *string      `json:"senderEmail"`
	Emails      *[]wireEmail `json:"emails"`
}

// DecodeResult validates raw model output against the response schema.
// Any deviation fails the whole response; partial results are never returned.
func DecodeResult(raw string) (organizer.Result, error) {
	data := bytes.TrimSpace([]byte(raw))
	if !json.Valid(data) {
		return nil, ErrNotJSON
	}
	if len(data) == 0 || data[0] != '[' {
		return nil, ErrNotArray
	}

	var groups []*wireGroup
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("failed to decode groups: %w", err)
	}

	result := make(organizer.Result, 0, len(groups))
	for i, g := range groups {
		if g == nil {
			return nil, fmt.Errorf("group %d is null", i)
		}
		if g.SenderName == nil || g.SenderEmail == nil || g.Emails == nil {
			return nil, fmt.Errorf("group %d is missing a required field", i)
		}

		emails := make([]organizer.Email, 0, len(*g.Emails))
		for j, e := range *g.Emails {
			if e.Subject == nil || e.Date == nil || e.Summary == nil {
				return nil, fmt.Errorf("group %d email %d is missing a required field", i, j)
			}
			emails = append(emails, organizer.Email{
				Subject: *e.Subject,
				Date:    *e.Date,
				Summary: *e.Summary,
			})
		}

		result = append(result, organizer.EmailGroup{
			SenderName:  *g.SenderName,
			SenderEmail: *g.SenderEmail,
			Emails:      emails,
		})
	}
	return result, nil
}
