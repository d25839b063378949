package parser

import "time"

// ParsedEmail is the part of an uploaded message that is forwarded to the model
type ParsedEmail struct {
	Subject    string
	Sender     string
	SenderName string
	Date       time.Time // zero when the header is missing or invalid
	BodyText   string
	BodyHTML   string
}
