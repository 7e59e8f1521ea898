package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Adda-Baaj/onefootball-harvester/internal/logger"
	"github.com/Adda-Baaj/onefootball-harvester/pkg/providers"
)

// Processor handles a single provider.
type Processor interface {
	Process(ctx context.Context, cfg providers.Provider) (int, error)
}

// Service coordinates crawling across multiple providers.
type Service struct {
	processor Processor
	log       logger.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewService wires a crawler around a provider processor.
func NewService(processor Processor, log logger.Logger) *Service {
	return &Service{
		processor: processor,
		log:       logger.Ensure(log),
		sleep:     pause,
	}
}

// Run executes a crawl pass for all configured providers.
func (s *Service) Run(ctx context.Context, cfgs []providers.Provider) error {
	if s == nil || s.processor == nil {
		return fmt.Errorf("crawler service is not initialized")
	}

	if len(cfgs) == 0 {
		return fmt.Errorf("no providers configured for crawling")
	}

	errs := s.runAll(ctx, cfgs)
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

func (s *Service) runAll(ctx context.Context, cfgs []providers.Provider) []error {
	errs := make([]error, 0, len(cfgs))

	for i, cfg := range cfgs {
		if ctx.Err() != nil {
			break
		}

		if _, err := s.processor.Process(ctx, cfg); err != nil {
			errs = append(errs, err)
			s.log.ErrorObj("provider crawl failed", "provider_error", map[string]any{
				"provider_id": cfg.ID,
				"error":       err.Error(),
			})
		}

		if i < len(cfgs)-1 {
			if err := s.sleep(ctx, cfg.RequestDelay()); err != nil {
				break
			}
		}
	}

	return errs
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
