package types

import "time"

type Tag struct {
	Name        string
	LastUpdated time.Time
}

type RetentionPolicy struct {
	KeepLastN   int
	MinAgeDays  int
	ExcludeTags []string
	DryRun      bool
}

type TagOutcome string

const (
	OutcomeKeptRecent   TagOutcome = "kept-recent"
	OutcomeKeptTooYoung TagOutcome = "kept-too-young"
	OutcomeKeptExcluded TagOutcome = "kept-excluded"
	OutcomeDeleted      TagOutcome = "deleted"
	OutcomeDeleteFailed TagOutcome = "delete-failed"
)

type TagDecision struct {
	Tag     string     `yaml:"tag"`
	Rank    int        `yaml:"rank"`
	AgeDays int        `yaml:"age_days"`
	Outcome TagOutcome `yaml:"outcome"`
	Reason  string     `yaml:"reason"`
}

type RepositoryResult struct {
	Repository string        `yaml:"repository"`
	Decisions  []TagDecision `yaml:"decisions,omitempty"`
	Kept       int           `yaml:"kept"`
	Deleted    int           `yaml:"deleted"`
	Failed     int           `yaml:"failed"`
	Err        string        `yaml:"error,omitempty"`
}

func (r RepositoryResult) Checked() int {
	return len(r.Decisions)
}

type RunSummary struct {
	Repositories []RepositoryResult `yaml:"repositories"`
	Checked      int                `yaml:"checked"`
	Kept         int                `yaml:"kept"`
	Deleted      int                `yaml:"deleted"`
	Failed       int                `yaml:"failed"`
	FailedRepos  int                `yaml:"failed_repositories"`
	StartedAt    time.Time          `yaml:"started_at"`
	FinishedAt   time.Time          `yaml:"finished_at"`
	DryRun       bool               `yaml:"dry_run"`
}
