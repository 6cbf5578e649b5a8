package ports

import (
	"context"

	"hubclean/internal/types"
)

type RegistryPort interface {
	ListRepositories(ctx context.Context, namespace string) ([]string, error)
	ListTags(ctx context.Context, namespace string, repository string) ([]types.Tag, error)
	DeleteTag(ctx context.Context, namespace string, repository string, tag string) error
}
