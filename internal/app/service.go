package app

import (
	"time"

	"hubclean/internal/adapters"
	"hubclean/internal/ports"
)

type Service struct {
	Registry ports.RegistryPort
	Events   ports.EventSinkPort
	Reports  ports.ReportWriterPort
	Clock    func() time.Time
}

func NewService(registry ports.RegistryPort) Service {
	return Service{
		Registry: registry,
		Events:   adapters.NewLogEventSink(),
		Reports:  adapters.NewReportWriterAdapter(),
		Clock:    time.Now,
	}
}

func timeNow(clock func() time.Time) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock().UTC()
}
