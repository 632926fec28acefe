// Package notify composes the chat notification for a submitted assessment.
package notify

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"math/rand/v2"
	"strings"
)

// Message fragments.
const (
	Banner         = "New assessment from candidate has been submitted at "
	MentionMarker  = " :adore-x5: "
	NotFoundMarker = "`Engineers 404 NOT FOUND` :shock:"
)

// Message is a composed notification.
type Message struct {
	Text string
}

// Input carries everything a notification mentions.
type Input struct {
	CreatedAt     string
	RepoURL       string
	CandidateName string
	SlackID       string   // selected reviewer; empty when none was resolved
	Fallback      []string // static roster entries for the role, used when SlackID is empty
}

// Composer builds notification text.
type Composer struct {
	pick          func(n int) int
	searchBaseURL string
}

// NewComposer creates a Composer. searchBaseURL is the candidate-search prefix
// the encoded query is appended to.
func NewComposer(searchBaseURL string) *Composer {
	return &Composer{
		searchBaseURL: searchBaseURL,
		pick:          rand.IntN, //nolint:gosec // fallback choice is not security sensitive
	}
}

// Compose builds the notification for one invitation.
func (c *Composer) Compose(in Input) Message {
	lines := []string{
		Banner,
		"`" + in.CreatedAt + "` :tada:",
		in.RepoURL,
		c.SearchURL(in.CandidateName),
		c.mention(in),
	}
	return Message{Text: strings.Join(lines, "\n")}
}

func (c *Composer) mention(in Input) string {
	switch {
	case in.SlackID != "":
		return "<@" + in.SlackID + ">" + MentionMarker
	case len(in.Fallback) > 0:
		return in.Fallback[c.pick(len(in.Fallback))] + MentionMarker
	default:
		return NotFoundMarker
	}
}

// SearchURL links to the candidate-search page for a name.
// The query is {"query":"<name>","root":[]}, base64-encoded.
func (c *Composer) SearchURL(name string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a struct of strings cannot fail.
	_ = enc.Encode(searchQuery{Query: name, Root: []string{}}) //nolint:errcheck // see above
	q := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	return c.searchBaseURL + base64.StdEncoding.EncodeToString(q)
}

type searchQuery struct {
	Query string   `json:"query"`
	Root  []string `json:"root"`
}
