package extract

import (
	"strings"

	"google.golang.org/genai"
)

const instructions = `You are an email organizer. The text below contains one or more raw emails.
For every email found in the text, extract:
- the sender's name
- the sender's email address
- the subject
- the date, in ISO-8601 format (for example 2024-07-15 or 2024-07-15T09:30:00Z); use an empty string when the date cannot be determined
- a one-paragraph summary of the email's content

Group the emails by the sender's email address.
Represent missing information as an empty string; never omit a field and never use null.
Respond only with JSON that conforms exactly to the provided schema.

Email text:
`

// BuildPrompt returns the fixed instruction text followed by the user's input
func BuildPrompt(text string) string {
	var b strings.Builder
	b.Grow(len(instructions) + len(text))
	b.WriteString(instructions)
	b.WriteString(text)
	return b.String()
}

// ResponseSchema is the JSON schema the model's answer must conform to
func ResponseSchema() *genai.Schema {
	str := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc}
	}
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"senderName":  str("Display name of the sender"),
				"senderEmail": str("Email address of the sender"),
				"emails": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"subject": str("Subject line"),
							"date":    str("ISO-8601 date or empty string"),
							"summary": str("One-paragraph summary"),
						},
						Required:         []string{"subject", "date", "summary"},
						PropertyOrdering: []string{"subject", "date", "summary"},
					},
				},
			},
			Required:         []string{"senderName", "senderEmail", "emails"},
			PropertyOrdering: []string{"senderName", "senderEmail", "emails"},
		},
	}
}
