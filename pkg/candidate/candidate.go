// Package candidate extracts the candidate name and applied-for role from an assessment repository name.
package candidate

import (
	"regexp"
	"strings"
)

// assessmentPattern matches "<First>_<Last>_<anything>_Technical_Assessment".
// Name tokens are alphabetic and may contain internal hyphens.
var assessmentPattern = regexp.MustCompile(`^([A-Za-z]+(?:-[A-Za-z]+)*)_([A-Za-z]+(?:-[A-Za-z]+)*)_.+_Technical_Assessment$`)

// MatchKind reports how a candidate name was obtained.
type MatchKind int

// Name match kinds.
const (
	MatchNone   MatchKind = iota // no name could be derived
	MatchStrict                  // the full assessment pattern matched
	MatchLoose                   // first two underscore tokens, pattern did not match
)

func (k MatchKind) String() string {
	switch k {
	case MatchStrict:
		return "strict"
	case MatchLoose:
		return "loose"
	default:
		return "none"
	}
}

// Role is a canonical role label. The zero value means no role keyword matched.
type Role struct {
	Keyword string
	Label   string
}

// Found reports whether a role keyword matched.
func (r Role) Found() bool {
	return r.Label != ""
}

func (r Role) String() string {
	if !r.Found() {
		return "unknown"
	}
	return r.Label
}

// roleKeywords is scanned in order; the first keyword contained in the repository name wins.
var roleKeywords = []Role{
	{Keyword: "frontend", Label: "Frontend Engineer"},
	{Keyword: "backend", Label: "Backend Engineer"},
	{Keyword: "data", Label: "Data Engineer/Manager"},
	{Keyword: "ai", Label: "AI Engineer"},
	{Keyword: "devops", Label: "DevOps Engineer"},
	{Keyword: "devsecops", Label: "DevOps Engineer"},
	{Keyword: "intern", Label: "Software Engineer Intern"},
}

// Candidate is what a repository name says about the person who submitted it.
type Candidate struct {
	Name      string
	Role      Role
	NameMatch MatchKind
}

// HasName reports whether a candidate name was derived.
func (c Candidate) HasName() bool {
	return c.NameMatch != MatchNone
}

// Parse extracts the candidate name and role from a repository name (without the owner prefix).
func Parse(repoName string) Candidate {
	name, kind := ParseName(repoName)
	return Candidate{
		Name:      name,
		NameMatch: kind,
		Role:      DetectRole(repoName),
	}
}

// ParseName returns the candidate's "First Last" name.
//
// When the strict assessment pattern does not match, the first two underscore-separated
// tokens are used instead; a name without underscores is returned whole.
func ParseName(repoName string) (string, MatchKind) {
	if m := assessmentPattern.FindStringSubmatch(repoName); m != nil {
		return m[1] + " " + m[2], MatchStrict
	}

	tokens := strings.Split(repoName, "_")
	var parts []string
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		parts = append(parts, tok)
		if len(parts) == 2 {
			break
		}
	}
	if len(parts) == 0 {
		return "", MatchNone
	}
	return strings.Join(parts, " "), MatchLoose
}

// DetectRole finds the first role keyword contained in the repository name, ignoring case.
func DetectRole(repoName string) Role {
	lower := strings.ToLower(repoName)
	for _, r := range roleKeywords {
		if strings.Contains(lower, r.Keyword) {
			return r
		}
	}
	return Role{}
}

// Labels returns the distinct role labels in keyword order.
func Labels() []string {
	seen := make(map[string]bool, len(roleKeywords))
	labels := make([]string, 0, len(roleKeywords))
	for _, r := range roleKeywords {
		if !seen[r.Label] {
			seen[r.Label] = true
			labels = append(labels, r.Label)
		}
	}
	return labels
}
