package organizer

// Email is a single extracted message. Date is ISO-8601 or empty when the
// model could not determine it.
type Email struct {
	Subject string `json:"subject"`
	Date    string `json:"date"`
	Summary string `json:"summary"`
}

// EmailGroup holds the emails of one sender. SenderEmail identifies the group;
// duplicates are kept as distinct groups.
type EmailGroup struct {
	SenderName  string  `json:"senderName"`
	SenderEmail string  `json:"senderEmail"`
	Emails      []Email `json:"emails"`
}

// Result is the ordered collection of groups produced by one extraction
type Result []EmailGroup

// EmailCount returns the total number of emails across all groups
func (r Result) EmailCount() int {
	n := 0
	for _, g := range r {
		n += len(g.Emails)
	}
	return n
}

// NonEmpty returns the groups that hold at least one email
func (r Result) NonEmpty() Result {
	if r == nil {
		return nil
	}
	out := make(Result, 0, len(r))
	for _, g := range r {
		if len(g.Emails) > 0 {
			out = append(out, g)
		}
	}
	return out
}

// clone returns a deep copy so callers never share backing arrays
func (r Result) clone() Result {
	if r == nil {
		return nil
	}
	out := make(Result, len(r))
	for i, g := range r {
		out[i] = EmailGroup{
			SenderName:  g.SenderName,
			SenderEmail: g.SenderEmail,
			Emails:      append([]Email(nil), g.Emails...),
		}
	}
	return out
}

// SortOrder selects the direction of date ordering
type SortOrder string

const (
	Newest SortOrder = "newest"
	Oldest SortOrder = "oldest"
)

// ParseSortOrder maps a query value to a SortOrder, defaulting to Newest
func ParseSortOrder(s string) SortOrder {
	if SortOrder(s) == Oldest {
		return Oldest
	}
	return Newest
}
