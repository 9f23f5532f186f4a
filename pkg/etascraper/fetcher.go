package etascraper

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/travigo/etascraper/pkg/nwst"
)

const DefaultFetchAttempts = 3

type EtaSource interface {
	Fetch(ctx context.Context, target Target) PollOutcome
}

// Fetcher polls the ETA list for a target, retrying failures a bounded number
// of times before giving up for the cycle
type Fetcher struct {
	API        nwst.API
	Attempts   int
	RetryDelay time.Duration
	Logger     zerolog.Logger
}

type etaListResult struct {
	etas  []nwst.Eta
	noEta *nwst.NoEta
}

func (f *Fetcher) Fetch(ctx context.Context, target Target) PollOutcome {
	attempts := f.Attempts
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(f.RetryDelay), uint64(attempts-1)),
		ctx,
	)

	result, err := backoff.RetryNotifyWithData(
		func() (etaListResult, error) {
			etas, noEta, err := f.API.GetEtaList(
				ctx,
				target.Route.RouteNumber,
				target.Stop.Sequence,
				target.Stop.StopID,
				target.Rdv,
				target.Route.Bound,
			)
			if err != nil {
				if ctx.Err() != nil {
					return etaListResult{}, backoff.Permanent(err)
				}
				return etaListResult{}, err
			}

			return etaListResult{etas: etas, noEta: noEta}, nil
		},
		b,
		func(err error, d time.Duration) {
			f.Logger.Debug().Err(err).Dur("retryin", d).Msg("Retrying ETA list fetch")
		},
	)
	if err != nil {
		return TransientFailure{Err: err}
	}

	if result.noEta != nil {
		return NoEta{Message: result.noEta.Message}
	}

	etas := make(EtaList, 0, len(result.etas))
	for _, eta := range result.etas {
		etas = append(etas, NewEtaRecord(eta))
	}

	return etas
}
