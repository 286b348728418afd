package datastores

import (
	"cmp"
	"slices"
	"strings"
)

// FilterContacts returns the contacts matching term, in list order.
//
// An empty term returns list itself. Otherwise a contact matches when term is
// a case-insensitive substring of its name or email, or a case-sensitive
// substring of its phone.
func FilterContacts(list []Contact, term string) []Contact {
	if term == "" {
		return list
	}

	lower := strings.ToLower(term)
	matches := make([]Contact, 0, len(list))
	for _, c := range list {
		if strings.Contains(strings.ToLower(c.Name), lower) ||
			strings.Contains(c.Phone, term) ||
			(c.Email != "" && strings.Contains(strings.ToLower(c.Email), lower)) {
			matches = append(matches, c)
		}
	}
	return matches
}

// SortOrder selects how [SortContacts] orders a list.
type SortOrder string

const (
	SortInsertion SortOrder = "insertion"
	SortName      SortOrder = "name"
)

// SortContacts returns list ordered by order. [SortInsertion] and unknown
// orders return list unchanged; [SortName] returns a sorted copy.
func SortContacts(list []Contact, order SortOrder) []Contact {
	if order != SortName {
		return list
	}
	sorted := slices.Clone(list)
	slices.SortStableFunc(sorted, func(a, b Contact) int {
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return sorted
}
