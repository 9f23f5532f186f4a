package etascraper

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const DefaultPollInterval = 10 * time.Second

// Scraper runs the poll, reconcile, print, sleep cycle until nothing is pending
type Scraper struct {
	Source       EtaSource
	Reconciler   *Reconciler
	Printer      *Printer
	PollInterval time.Duration
	Logger       zerolog.Logger

	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

func (s *Scraper) Run(ctx context.Context, target Target) error {
	for {
		outcome := s.Source.Fetch(ctx, target)
		now := s.now()

		s.trace(now, outcome)

		emitted := s.Reconciler.Reconcile(outcome, now)
		if len(emitted) > 0 {
			if err := s.Printer.Emit(emitted); err != nil {
				return fmt.Errorf("writing ETAs: %w", err)
			}
		}

		// A transient failure never ends the scrape
		if _, failed := outcome.(TransientFailure); !failed && s.Reconciler.Done() {
			break
		}

		if err := s.sleep(ctx, s.PollInterval); err != nil {
			return err
		}
	}

	return s.Printer.Finished(s.now())
}

func (s *Scraper) trace(now time.Time, outcome PollOutcome) {
	s.Logger.Debug().Time("polled", now).Msg("Polled ETA list")

	switch outcome := outcome.(type) {
	case EtaList:
		for _, eta := range outcome {
			s.Logger.Debug().
				Time("eta", eta.PredictedTime).
				Str("rdv", eta.RouteVariant.String()).
				Str("message", eta.Message).
				Msg("Candidate arrival")
		}
		if len(outcome) == 0 {
			s.Logger.Debug().Msg("Empty ETA list")
		}
	case NoEta:
		s.Logger.Debug().Str("message", outcome.Message).Msg("No ETA")
	case TransientFailure:
		s.Logger.Warn().Err(outcome.Err).Msg("Failed to fetch ETA list")
	}
}

func (s *Scraper) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Scraper) sleep(ctx context.Context, d time.Duration) error {
	if s.Sleep != nil {
		return s.Sleep(ctx, d)
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
