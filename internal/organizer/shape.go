package organizer

import (
	"cmp"
	"errors"
	"slices"
	"time"
)

// ErrIndexOutOfRange is returned by Delete when no matching group has an
// email at the requested index.
var ErrIndexOutOfRange = errors.New("email index out of range")

// Sort returns a new Result with emails ordered by date inside every group and
// groups ordered by their first email. Emails without a parsable date go last
// in either order, keeping their input order. Oldest is the exact reverse of
// Newest over the dated prefix, so equal dates keep input order under Newest
// and reverse it under Oldest. The input is not modified.
func Sort(result Result, order SortOrder) Result {
	out := result.clone()
	for i := range out {
		sortByDate(out[i].Emails, order, func(e Email) (time.Time, rank) {
			return dateKey(e.Date)
		})
	}
	sortByDate(out, order, func(g EmailGroup) (time.Time, rank) {
		if len(g.Emails) == 0 {
			return time.Time{}, rankEmpty
		}
		return dateKey(g.Emails[0].Date)
	})
	return out
}

type rank int

const (
	rankDated rank = iota
	rankUndated
	rankEmpty
)

func dateKey(s string) (time.Time, rank) {
	t, ok := ParseDate(s)
	if !ok {
		return time.Time{}, rankUndated
	}
	return t, rankDated
}

// sortByDate stable-sorts items newest first with undated and empty items
// trailing, then reverses the dated prefix for Oldest.
func sortByDate[T any](items []T, order SortOrder, key func(T) (time.Time, rank)) {
	slices.SortStableFunc(items, func(a, b T) int {
		ta, ra := key(a)
		tb, rb := key(b)
		if ra != rb {
			return cmp.Compare(ra, rb)
		}
		if ra != rankDated {
			return 0
		}
		return tb.Compare(ta)
	})
	if order != Oldest {
		return
	}
	n := 0
	for n < len(items) {
		if _, r := key(items[n]); r != rankDated {
			break
		}
		n++
	}
	slices.Reverse(items[:n])
}

// Delete removes the email at index from every group whose SenderEmail equals
// senderEmail, then drops every group with no emails. index refers to the displayed
// (sorted) order. Groups too short for index are left as they are; if no
// matching group can serve index the call fails with ErrIndexOutOfRange.
// An unknown senderEmail yields an equivalent copy.
func Delete(result Result, senderEmail string, index int) (Result, error) {
	matched, removed := false, false
	out := make(Result, 0, len(result))
	for _, g := range result {
		if g.SenderEmail != senderEmail {
			if len(g.Emails) == 0 {
				continue
			}
			out = append(out, EmailGroup{
				SenderName:  g.SenderName,
				SenderEmail: g.SenderEmail,
				Emails:      append([]Email(nil), g.Emails...),
			})
			continue
		}
		matched = true
		emails := append([]Email(nil), g.Emails...)
		if index >= 0 && index < len(emails) {
			emails = slices.Delete(emails, index, index+1)
			removed = true
		}
		if len(emails) == 0 {
			continue
		}
		out = append(out, EmailGroup{
			SenderName:  g.SenderName,
			SenderEmail: g.SenderEmail,
			Emails:      emails,
		})
	}
	if matched && !removed {
		return nil, ErrIndexOutOfRange
	}
	if result == nil {
		return nil, nil
	}
	return out, nil
}
