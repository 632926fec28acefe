package invite

import "github.com/bowtie-careers/auto-accept-repo-invites/pkg/candidate"

// State is where an invitation ended up within one run.
type State int

// Invitation states.
//
//	Pending -> Expired
//	Pending -> NameInvalid | RoleUnresolved | Ready -> Notified -> Accepted
//	any step after Pending -> Failed
//
// NameInvalid and RoleUnresolved still proceed to notification with a placeholder.
const (
	StatePending State = iota
	StateExpired
	StateNameInvalid
	StateRoleUnresolved
	StateReady
	StateNotified
	StateAccepted
	StateFailed
)

var stateNames = [...]string{
	StatePending:        "pending",
	StateExpired:        "expired",
	StateNameInvalid:    "name_invalid",
	StateRoleUnresolved: "role_unresolved",
	StateReady:          "ready",
	StateNotified:       "notified",
	StateAccepted:       "accepted",
	StateFailed:         "failed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Result describes what happened to one invitation.
type Result struct {
	Err          error
	Repository   string
	Reviewer     string // selected reviewer e-mail; empty when the pool was empty
	Candidate    candidate.Candidate
	ID           int64
	SlackStatus  int
	GitHubStatus int
	State        State
}

func (r Result) classify() State {
	switch {
	case !r.Candidate.HasName():
		return StateNameInvalid
	case !r.Candidate.Role.Found():
		return StateRoleUnresolved
	default:
		return StateReady
	}
}

// Summary aggregates the results of one run.
type Summary struct {
	RunID     string
	Results   []Result
	Processed int // every distinct invitation seen, expired ones included
	Accepted  int
	Skipped   int // expired, or left untouched by a dry run
	Failed    int
}

func (s *Summary) add(r Result) {
	s.Results = append(s.Results, r)
	s.Processed++
	switch r.State {
	case StateAccepted:
		s.Accepted++
	case StateFailed:
		s.Failed++
	default:
		s.Skipped++
	}
}
