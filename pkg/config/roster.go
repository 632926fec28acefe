package config

import (
	"fmt"
	"os"
	"slices"

	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/candidate"
	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/reviewer"
	"github.com/bowtie-careers/auto-accept-repo-invites/pkg/types"

	"gopkg.in/yaml.v3"
)

// rosterFile is the on-disk layout of the fallback roster:
//
//	fallback:
//	  Backend Engineer: ["<@U024BE7LH>", "<@U0G9QF9C6>"]
type rosterFile struct {
	Fallback map[string][]string `yaml:"fallback"`
}

// LoadRoster reads the static fallback roster. An empty path yields an empty roster.
func LoadRoster(path string) (reviewer.Roster, error) {
	if path == "" {
		return reviewer.Roster{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w: %w", types.ErrConfigMissing, err)
	}

	var f rosterFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse roster %s: %w: %w", path, types.ErrConfigMissing, err)
	}

	labels := candidate.Labels()
	roster := make(reviewer.Roster, len(f.Fallback))
	for label, entries := range f.Fallback {
		if !slices.Contains(labels, label) {
			return nil, fmt.Errorf("roster %s: unknown role %q (want one of %v): %w", path, label, labels, types.ErrConfigMissing)
		}
		var kept []string
		for _, e := range entries {
			if e != "" {
				kept = append(kept, e)
			}
		}
		if len(kept) > 0 {
			roster[label] = kept
		}
	}
	return roster, nil
}
