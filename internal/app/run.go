package app

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"hubclean/internal/core"
	"hubclean/internal/types"
)

// Run executes one full retention pass over the selected repositories and
// returns the aggregated summary. Per-repository and per-tag failures are
// recorded in the summary, never returned as errors; only an inability to
// resolve the repository set fails the run itself.
func (s Service) Run(ctx context.Context, req RunRequest) (types.RunSummary, error) {
	if s.Registry == nil || s.Events == nil {
		return types.RunSummary{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("run requires registry and event ports")
	}
	summary := types.RunSummary{
		StartedAt: timeNow(s.Clock),
		DryRun:    req.Policy.DryRun,
	}
	repositories := req.Repositories
	if len(repositories) == 0 {
		listed, err := s.Registry.ListRepositories(ctx, req.Namespace)
		if err != nil {
			return summary, errbuilder.New().
				WithCode(errbuilder.CodeOf(err)).
				WithMsg(fmt.Sprintf("failed to resolve repositories for namespace %q", req.Namespace)).
				WithCause(err)
		}
		repositories = listed
	}
	s.Events.RunStarted(req.Namespace, len(repositories), req.Policy)

	for _, repository := range repositories {
		result := s.processRepository(ctx, req.Namespace, repository, req.Policy)
		summary.Repositories = append(summary.Repositories, result)
		summary.Checked += result.Checked()
		summary.Kept += result.Kept
		summary.Deleted += result.Deleted
		summary.Failed += result.Failed
		if result.Err != "" {
			summary.FailedRepos++
		}
	}
	summary.FinishedAt = timeNow(s.Clock)
	s.Events.RunDone(summary)

	if req.ReportPath != "" && s.Reports != nil {
		if err := s.Reports.WriteSummary(req.ReportPath, summary); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

// processRepository runs the fetch → evaluate → execute pipeline for a single
// repository. A tag-listing failure marks the whole repository as failed
// without partial decisions; a delete failure only downgrades that one tag.
func (s Service) processRepository(ctx context.Context, namespace string, repository string, policy types.RetentionPolicy) types.RepositoryResult {
	s.Events.RepositoryStarted(repository)
	result := types.RepositoryResult{Repository: repository}

	tags, err := s.Registry.ListTags(ctx, namespace, repository)
	if err != nil {
		result.Err = err.Error()
		s.Events.RepositoryFailed(repository, result.Err)
		return result
	}

	decisions := core.EvaluateTags(tags, policy, timeNow(s.Clock))
	for i := range decisions {
		decision := &decisions[i]
		if decision.Outcome != types.OutcomeDeleted {
			result.Kept++
			continue
		}
		if policy.DryRun {
			decision.Reason = "dry-run: " + decision.Reason
			result.Deleted++
			continue
		}
		if err := s.Registry.DeleteTag(ctx, namespace, repository, decision.Tag); err != nil {
			decision.Outcome = types.OutcomeDeleteFailed
			decision.Reason = fmt.Sprintf("delete failed: %s", err.Error())
			result.Failed++
			continue
		}
		result.Deleted++
	}
	result.Decisions = decisions
	s.Events.RepositoryDone(result)
	return result
}
