package adapters

import (
	"github.com/rs/zerolog/log"

	"hubclean/internal/ports"
	"hubclean/internal/types"
)

// LogEventSink renders run events through the global zerolog logger.
type LogEventSink struct{}

func NewLogEventSink() LogEventSink {
	return LogEventSink{}
}

func (LogEventSink) RunStarted(namespace string, repositories int, policy types.RetentionPolicy) {
	log.Info().
		Str("namespace", namespace).
		Int("repositories", repositories).
		Int("keep_last", policy.KeepLastN).
		Int("min_age_days", policy.MinAgeDays).
		Strs("exclude_tags", policy.ExcludeTags).
		Bool("dry_run", policy.DryRun).
		Msg("cleanup run started")
}

func (LogEventSink) RepositoryStarted(repository string) {
	log.Info().Str("repository", repository).Msg("processing repository")
}

func (LogEventSink) RepositoryDone(result types.RepositoryResult) {
	log.Info().
		Str("repository", result.Repository).
		Int("checked", result.Checked()).
		Int("kept", result.Kept).
		Int("deleted", result.Deleted).
		Int("failed", result.Failed).
		Msg("repository done")
}

func (LogEventSink) RepositoryFailed(repository string, reason string) {
	log.Error().Str("repository", repository).Str("reason", reason).Msg("repository failed")
}

func (LogEventSink) RunDone(summary types.RunSummary) {
	event := log.Info().
		Int("checked", summary.Checked).
		Int("kept", summary.Kept).
		Int("deleted", summary.Deleted).
		Bool("dry_run", summary.DryRun)
	if summary.Failed > 0 {
		event = event.Int("failed", summary.Failed)
	}
	if summary.FailedRepos > 0 {
		event = event.Int("failed_repositories", summary.FailedRepos)
	}
	event.Msg("cleanup run done")
}

var _ ports.EventSinkPort = LogEventSink{}
