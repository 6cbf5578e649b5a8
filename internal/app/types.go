package app

import "hubclean/internal/types"

type RunRequest struct {
	Namespace    string
	Repositories []string
	Policy       types.RetentionPolicy
	ReportPath   string
}
