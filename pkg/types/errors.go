package types

import "errors"

// Error kinds shared by the API clients and the invitation processor.
// Callers wrap these with fmt.Errorf("...: %w", ErrX) and test with errors.Is.
var (
	ErrConfigMissing       = errors.New("config missing")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrSchemaMismatch      = errors.New("schema mismatch")
	ErrAmbiguousMatch      = errors.New("ambiguous match")
	ErrNameParse           = errors.New("name parse failure")
	ErrEmptyReviewerPool   = errors.New("empty reviewer pool")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrConfigMissing, "ConfigMissing"},
	{ErrUpstreamUnavailable, "UpstreamUnavailable"},
	{ErrSchemaMismatch, "SchemaMismatch"},
	{ErrAmbiguousMatch, "AmbiguousMatch"},
	{ErrNameParse, "NameParseFailure"},
	{ErrEmptyReviewerPool, "EmptyReviewerPool"},
}

// Classify returns the coarse kind of err for log lines.
// Errors outside the taxonomy are reported as "Unexpected".
func Classify(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "Unexpected"
}
