package ports

import "hubclean/internal/types"

type ReportWriterPort interface {
	WriteSummary(path string, summary types.RunSummary) error
}
