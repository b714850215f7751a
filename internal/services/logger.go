package services

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/unihybrid-router/internal/common"
)

type ServiceIdentifier interface {
	ID() string
}

// ServiceLogger tags every event with the owning service id.
type ServiceLogger struct {
	logger zerolog.Logger
}

func NewServiceLogger(svc ServiceIdentifier) *ServiceLogger {
	return newServiceLogger(svc, log.Logger)
}

func newServiceLogger(svc ServiceIdentifier, base zerolog.Logger) *ServiceLogger {
	return &ServiceLogger{
		logger: base.With().Str("service", svc.ID()).Logger(),
	}
}

// For returns a logger that also carries the request id found on ctx.
func (l *ServiceLogger) For(ctx context.Context) *ServiceLogger {
	id, ok := common.RequestIDFrom(ctx)
	if !ok {
		return l
	}
	return &ServiceLogger{logger: l.logger.With().Str("request_id", id).Logger()}
}

func (l *ServiceLogger) Info() *zerolog.Event {
	return l.logger.Info()
}

func (l *ServiceLogger) Error() *zerolog.Event {
	return l.logger.Error()
}

func (l *ServiceLogger) Warn() *zerolog.Event {
	return l.logger.Warn()
}

func (l *ServiceLogger) Debug() *zerolog.Event {
	return l.logger.Debug()
}
