package ports

import "hubclean/internal/types"

type EventSinkPort interface {
	RunStarted(namespace string, repositories int, policy types.RetentionPolicy)
	RepositoryStarted(repository string)
	RepositoryDone(result types.RepositoryResult)
	RepositoryFailed(repository string, reason string)
	RunDone(summary types.RunSummary)
}
