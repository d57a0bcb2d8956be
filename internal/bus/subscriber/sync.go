package subscriber

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"eventbus/internal/bus"
	"eventbus/internal/validator"
)

// Sync processes events inline on the publisher's goroutine. It suits cheap
// handlers only; failures are logged and never reach the bus.
type Sync struct {
	name    string
	handler bus.Handler
	logger  *zap.Logger
}

func NewSync(name string, handler bus.Handler, logger *zap.Logger) (*Sync, error) {
	s := Sync{
		name:    name,
		handler: handler,
		logger:  logger,
	}

	if err := validator.Validate("sync subscriber", s.name, s.handler, s.logger); err != nil {
		return nil, fmt.Errorf("failed to validate sync subscriber deps: %w", err)
	}
	s.logger = s.logger.Named("subscriber").With(zap.String("subscriber", name))

	return &s, nil
}

func (s *Sync) Name() string {
	return s.name
}

func (s *Sync) ProcessEvent(ctx context.Context, e bus.Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("recovered panic while processing event",
				zap.Stringer("event", e),
				zap.Any("panic", r),
			)
		}
	}()

	if err := s.handler.Handle(ctx, e); err != nil {
		s.logger.Error("failed to process event", zap.Stringer("event", e), zap.Error(err))
	}
}
