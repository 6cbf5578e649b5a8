package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"hubclean/internal/adapters"
	"hubclean/internal/types"
)

type fakeRegistry struct {
	repositories []string
	tags         map[string][]types.Tag
	listErr      map[string]error
	reposErr     error
	deleteErr    map[string]error

	deleteCalls []string
}

func (f *fakeRegistry) ListRepositories(ctx context.Context, namespace string) ([]string, error) {
	if f.reposErr != nil {
		return nil, f.reposErr
	}
	return f.repositories, nil
}

func (f *fakeRegistry) ListTags(ctx context.Context, namespace string, repository string) ([]types.Tag, error) {
	if err := f.listErr[repository]; err != nil {
		return nil, err
	}
	return f.tags[repository], nil
}

func (f *fakeRegistry) DeleteTag(ctx context.Context, namespace string, repository string, tag string) error {
	key := repository + ":" + tag
	if err := f.deleteErr[key]; err != nil {
		return err
	}
	f.deleteCalls = append(f.deleteCalls, key)
	return nil
}

type recordingSink struct {
	started []string
	done    []types.RepositoryResult
	failed  map[string]string
	summary *types.RunSummary
}

func newRecordingSink() *recordingSink {
	return &recordingSink{failed: map[string]string{}}
}

func (r *recordingSink) RunStarted(string, int, types.RetentionPolicy) {}

func (r *recordingSink) RepositoryStarted(repository string) {
	r.started = append(r.started, repository)
}

func (r *recordingSink) RepositoryDone(result types.RepositoryResult) {
	r.done = append(r.done, result)
}

func (r *recordingSink) RepositoryFailed(repository string, reason string) {
	r.failed[repository] = reason
}

func (r *recordingSink) RunDone(summary types.RunSummary) {
	r.summary = &summary
}

func testService(registry *fakeRegistry, sink *recordingSink, now time.Time) Service {
	return Service{
		Registry: registry,
		Events:   sink,
		Reports:  adapters.NewReportWriterAdapter(),
		Clock:    func() time.Time { return now },
	}
}

func gatewayError(msg string) error {
	return errbuilder.New().WithCode(errbuilder.CodeInternal).WithMsg(msg)
}

func TestRunDeletesEligibleTags(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	registry := &fakeRegistry{
		tags: map[string][]types.Tag{
			"app": {
				{Name: "v3", LastUpdated: now.AddDate(0, 0, -1)},
				{Name: "v2", LastUpdated: now.AddDate(0, 0, -40)},
				{Name: "v1", LastUpdated: now.AddDate(0, 0, -60)},
			},
		},
	}
	sink := newRecordingSink()
	service := testService(registry, sink, now)

	summary, err := service.Run(t.Context(), RunRequest{
		Namespace:    "acme",
		Repositories: []string{"app"},
		Policy:       types.RetentionPolicy{KeepLastN: 1, MinAgeDays: 30},
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"app:v2", "app:v1"}, registry.deleteCalls)
	assert.Equal(t, 3, summary.Checked)
	assert.Equal(t, 1, summary.Kept)
	assert.Equal(t, 2, summary.Deleted)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, now, summary.StartedAt)
	assert.Equal(t, now, summary.FinishedAt)
	require.NotNil(t, sink.summary)
	assert.Equal(t, summary.Deleted, sink.summary.Deleted)
}

func TestRunDryRunIssuesNoDeletes(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	registry := &fakeRegistry{
		tags: map[string][]types.Tag{
			"app": {
				{Name: "v2", LastUpdated: now.AddDate(0, 0, -40)},
				{Name: "v1", LastUpdated: now.AddDate(0, 0, -60)},
			},
		},
	}
	sink := newRecordingSink()
	service := testService(registry, sink, now)

	summary, err := service.Run(t.Context(), RunRequest{
		Namespace:    "acme",
		Repositories: []string{"app"},
		Policy:       types.RetentionPolicy{KeepLastN: 0, MinAgeDays: 30, DryRun: true},
	})
	require.NoError(t, err)

	assert.Empty(t, registry.deleteCalls)
	assert.Equal(t, 2, summary.Deleted)
	assert.True(t, summary.DryRun)
	require.Len(t, sink.done, 1)
	for _, decision := range sink.done[0].Decisions {
		assert.Equal(t, types.OutcomeDeleted, decision.Outcome)
		assert.Contains(t, decision.Reason, "dry-run")
	}
}

func TestRunIsolatesRepositoryListingFailure(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	registry := &fakeRegistry{
		tags: map[string][]types.Tag{
			"b": {{Name: "v1", LastUpdated: now.AddDate(0, 0, -90)}},
		},
		listErr: map[string]error{"a": gatewayError("tag listing unavailable")},
	}
	sink := newRecordingSink()
	service := testService(registry, sink, now)

	summary, err := service.Run(t.Context(), RunRequest{
		Namespace:    "acme",
		Repositories: []string{"a", "b"},
		Policy:       types.RetentionPolicy{MinAgeDays: 30},
	})
	require.NoError(t, err)

	require.Len(t, summary.Repositories, 2)
	assert.NotEmpty(t, summary.Repositories[0].Err)
	assert.Empty(t, summary.Repositories[0].Decisions)
	assert.Equal(t, 1, summary.FailedRepos)
	assert.Equal(t, 1, summary.Deleted)
	assert.Contains(t, sink.failed, "a")
	assert.ElementsMatch(t, []string{"b:v1"}, registry.deleteCalls)
}

func TestRunIsolatesDeleteFailure(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	registry := &fakeRegistry{
		tags: map[string][]types.Tag{
			"app": {
				{Name: "v2", LastUpdated: now.AddDate(0, 0, -40)},
				{Name: "v1", LastUpdated: now.AddDate(0, 0, -60)},
			},
		},
		deleteErr: map[string]error{"app:v2": gatewayError("delete rejected")},
	}
	sink := newRecordingSink()
	service := testService(registry, sink, now)

	summary, err := service.Run(t.Context(), RunRequest{
		Namespace:    "acme",
		Repositories: []string{"app"},
		Policy:       types.RetentionPolicy{MinAgeDays: 30},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Deleted)
	assert.Equal(t, 1, summary.Failed)
	assert.ElementsMatch(t, []string{"app:v1"}, registry.deleteCalls)

	require.Len(t, summary.Repositories, 1)
	byName := map[string]types.TagDecision{}
	for _, decision := range summary.Repositories[0].Decisions {
		byName[decision.Tag] = decision
	}
	assert.Equal(t, types.OutcomeDeleteFailed, byName["v2"].Outcome)
	assert.Contains(t, byName["v2"].Reason, "delete rejected")
	assert.Equal(t, types.OutcomeDeleted, byName["v1"].Outcome)
}

func TestRunResolutionFailureIsFatal(t *testing.T) {
	registry := &fakeRegistry{reposErr: gatewayError("namespace listing unavailable")}
	sink := newRecordingSink()
	service := testService(registry, sink, time.Now())

	_, err := service.Run(t.Context(), RunRequest{
		Namespace: "acme",
		Policy:    types.RetentionPolicy{},
	})
	require.Error(t, err)
	assert.Nil(t, sink.summary)
}

func TestRunUsesNamespaceListingWhenNoFilter(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	registry := &fakeRegistry{
		repositories: []string{"x", "y"},
		tags:         map[string][]types.Tag{},
	}
	sink := newRecordingSink()
	service := testService(registry, sink, now)

	summary, err := service.Run(t.Context(), RunRequest{
		Namespace: "acme",
		Policy:    types.RetentionPolicy{},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, sink.started)
	assert.Len(t, summary.Repositories, 2)
}

func TestRunWritesReport(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	registry := &fakeRegistry{
		tags: map[string][]types.Tag{
			"app": {{Name: "v1", LastUpdated: now.AddDate(0, 0, -60)}},
		},
	}
	sink := newRecordingSink()
	service := testService(registry, sink, now)
	reportPath := filepath.Join(t.TempDir(), "summary.yaml")

	summary, err := service.Run(t.Context(), RunRequest{
		Namespace:    "acme",
		Repositories: []string{"app"},
		Policy:       types.RetentionPolicy{DryRun: true},
		ReportPath:   reportPath,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	var written types.RunSummary
	require.NoError(t, yaml.Unmarshal(data, &written))
	assert.Equal(t, summary.Deleted, written.Deleted)
	assert.True(t, written.DryRun)
	require.Len(t, written.Repositories, 1)
	assert.Equal(t, "app", written.Repositories[0].Repository)
}
