// Package reviewer resolves the reviewer pool for a role and picks one reviewer per invitation.
package reviewer

import "slices"

// Pool is a sorted, de-duplicated list of reviewer e-mail addresses.
type Pool []string

// NewPool builds a pool from raw addresses, dropping blanks and duplicates.
func NewPool(emails []string) Pool {
	p := make(Pool, 0, len(emails))
	for _, e := range emails {
		if e != "" {
			p = append(p, e)
		}
	}
	slices.Sort(p)
	return slices.Compact(p)
}

// Roster is a static per-role fallback list, keyed by role label.
// Entries are already-formatted mentions such as "<@U024BE7LH>".
type Roster map[string][]string

// For returns the fallback entries for a role label.
func (r Roster) For(label string) []string {
	return r[label]
}
