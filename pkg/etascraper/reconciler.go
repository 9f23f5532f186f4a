package etascraper

import (
	"strings"
	"time"

	"github.com/travigo/etascraper/pkg/util"
	"golang.org/x/exp/slices"
)

// Reconciler carries the pending predictions between polls and decides when
// each one is settled enough to be emitted.
//
// Records are matched across polls by predicted time only. A new record within
// Tolerance of a pending one supersedes it.
type Reconciler struct {
	Tolerance   time.Duration
	NoiseMarker string

	// nil slots are cleared records, compacted at the end of each cycle
	pending []*EtaRecord
}

func NewReconciler(tolerance time.Duration, noiseMarker string) *Reconciler {
	return &Reconciler{
		Tolerance:   tolerance,
		NoiseMarker: noiseMarker,
	}
}

// Reconcile runs one cycle against the outcome of a poll made at now and
// returns the records to emit, in ascending predicted time
func (r *Reconciler) Reconcile(outcome PollOutcome, now time.Time) []EtaRecord {
	var emitted []EtaRecord

	switch outcome := outcome.(type) {
	case EtaList:
		etas := r.FilterNoise(outcome)
		r.clearMatched(etas)

		emitted = r.emit(func(p *EtaRecord) bool {
			return now.Sub(p.PredictedTime) >= -r.Tolerance
		})

		r.pending = make([]*EtaRecord, 0, len(etas))
		for i := range etas {
			r.pending = append(r.pending, &etas[i])
		}
	case NoEta:
		emitted = r.emit(func(p *EtaRecord) bool {
			return now.Sub(p.PredictedTime) >= r.Tolerance
		})
	case TransientFailure:
		// No new information, pending is left as it is
	}

	util.InPlaceFilter(&r.pending, func(p *EtaRecord) bool {
		return p != nil
	})
	slices.SortStableFunc(r.pending, func(a, b *EtaRecord) int {
		return a.PredictedTime.Compare(b.PredictedTime)
	})

	return emitted
}

// FilterNoise drops records carrying the spurious marker in their message
func (r *Reconciler) FilterNoise(etas EtaList) EtaList {
	filtered := make(EtaList, 0, len(etas))

	for _, eta := range etas {
		if r.isNoise(eta) {
			continue
		}
		filtered = append(filtered, eta)
	}

	return filtered
}

func (r *Reconciler) isNoise(eta EtaRecord) bool {
	if r.NoiseMarker == "" {
		return false
	}

	return strings.Contains(strings.ToLower(eta.Message), strings.ToLower(r.NoiseMarker))
}

func (r *Reconciler) clearMatched(etas EtaList) {
	for _, eta := range etas {
		for i, p := range r.pending {
			if p != nil && absDuration(eta.PredictedTime.Sub(p.PredictedTime)) <= r.Tolerance {
				r.pending[i] = nil
			}
		}
	}
}

func (r *Reconciler) emit(settled func(*EtaRecord) bool) []EtaRecord {
	var emitted []EtaRecord

	for i, p := range r.pending {
		if p != nil && settled(p) {
			emitted = append(emitted, *p)
			r.pending[i] = nil
		}
	}

	return emitted
}

func (r *Reconciler) Done() bool {
	return len(r.pending) == 0
}

func (r *Reconciler) Pending() []EtaRecord {
	pending := make([]EtaRecord, 0, len(r.pending))
	for _, p := range r.pending {
		if p != nil {
			pending = append(pending, *p)
		}
	}

	return pending
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
