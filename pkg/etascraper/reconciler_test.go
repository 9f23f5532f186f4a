package etascraper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/etascraper/pkg/nwst"
)

var (
	hongKong = time.FixedZone("HKT", 8*60*60)
	baseTime = time.Date(2024, 3, 1, 8, 0, 0, 0, hongKong)
	testRdv  = nwst.Rdv{RouteNumber: "970", Destination: "SOU", Variant: 1}
)

const tolerance = 60 * time.Second

func eta(at time.Time, destination string) EtaRecord {
	return EtaRecord{
		PredictedTime:    at,
		RouteVariant:     testRdv,
		Destination:      destination,
		ProvidingCompany: "CTB",
	}
}

func predictedTimes(records []EtaRecord) []time.Time {
	var times []time.Time
	for _, r := range records {
		times = append(times, r.PredictedTime)
	}
	return times
}

func TestReconcileMatchedRecordIsSuperseded(t *testing.T) {
	r := NewReconciler(tolerance, "cycle")
	arrival := baseTime.Add(5 * time.Minute)

	emitted := r.Reconcile(EtaList{eta(arrival, "first")}, baseTime)
	assert.Empty(t, emitted)

	now := baseTime.Add(10 * time.Second)
	emitted = r.Reconcile(EtaList{eta(arrival.Add(5*time.Second), "second")}, now)
	assert.Empty(t, emitted)
	require.Len(t, r.Pending(), 1)
	assert.Equal(t, "second", r.Pending()[0].Destination)

	now = arrival.Add(5*time.Second + tolerance + time.Second)
	emitted = r.Reconcile(NoEta{Message: "No ETA"}, now)
	require.Len(t, emitted, 1)
	assert.Equal(t, "second", emitted[0].Destination)
	assert.True(t, r.Done())
}

func TestReconcileNoiseIsDiscarded(t *testing.T) {
	r := NewReconciler(tolerance, "cycle")
	noisy := eta(baseTime.Add(2*time.Minute), "noise")
	noisy.Message = "KMB cycle message"

	emitted := r.Reconcile(EtaList{noisy}, baseTime)
	assert.Empty(t, emitted)
	assert.True(t, r.Done(), "noise never enters the pending set")

	emitted = r.Reconcile(EtaList{noisy}, baseTime.Add(3*time.Minute))
	assert.Empty(t, emitted, "noise is never emitted")
}

func TestReconcileNoiseOnlyListBehavesAsEmptyList(t *testing.T) {
	// 30s past the prediction: emitted for a record list, but too early for a NoEta
	pendingArrival := baseTime.Add(-30 * time.Second)

	noisy := eta(baseTime.Add(10*time.Minute), "noise")
	noisy.Message = "Cycle"

	r := NewReconciler(tolerance, "cycle")
	r.Reconcile(EtaList{eta(pendingArrival, "pending")}, baseTime.Add(-time.Hour))
	emitted := r.Reconcile(EtaList{noisy}, baseTime)
	require.Len(t, emitted, 1)
	assert.Equal(t, "pending", emitted[0].Destination)
	assert.True(t, r.Done())

	r = NewReconciler(tolerance, "cycle")
	r.Reconcile(EtaList{eta(pendingArrival, "pending")}, baseTime.Add(-time.Hour))
	emitted = r.Reconcile(NoEta{}, baseTime)
	assert.Empty(t, emitted)
	assert.Len(t, r.Pending(), 1)
}

func TestReconcileNoEtaAging(t *testing.T) {
	tests := []struct {
		name    string
		age     time.Duration
		emitted bool
	}{
		{name: "well past", age: 5 * time.Minute, emitted: true},
		{name: "exactly tolerance", age: tolerance, emitted: true},
		{name: "just under tolerance", age: tolerance - time.Second, emitted: false},
		{name: "in the future", age: -time.Minute, emitted: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReconciler(tolerance, "cycle")
			r.Reconcile(EtaList{eta(baseTime, "a")}, baseTime.Add(-time.Hour))

			emitted := r.Reconcile(NoEta{}, baseTime.Add(tt.age))

			if tt.emitted {
				assert.Len(t, emitted, 1)
				assert.True(t, r.Done())
			} else {
				assert.Empty(t, emitted)
				assert.Len(t, r.Pending(), 1, "unsettled records survive a NoEta")
			}
		})
	}
}

func TestReconcileRecordListImminence(t *testing.T) {
	tests := []struct {
		name    string
		until   time.Duration
		emitted bool
	}{
		{name: "already passed", until: -2 * time.Minute, emitted: true},
		{name: "now", until: 0, emitted: true},
		{name: "exactly tolerance ahead", until: tolerance, emitted: true},
		{name: "beyond tolerance", until: tolerance + time.Second, emitted: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReconciler(tolerance, "cycle")
			r.Reconcile(EtaList{eta(baseTime.Add(tt.until), "a")}, baseTime.Add(-time.Hour))

			emitted := r.Reconcile(EtaList{}, baseTime)

			if tt.emitted {
				assert.Len(t, emitted, 1)
			} else {
				assert.Empty(t, emitted)
			}
			assert.True(t, r.Done(), "a record list replaces the pending set")
		})
	}
}

func TestReconcileMatchedRecordIsNotEmitted(t *testing.T) {
	r := NewReconciler(tolerance, "cycle")
	r.Reconcile(EtaList{eta(baseTime, "old")}, baseTime.Add(-time.Hour))

	// Imminent but superseded by a record within tolerance
	emitted := r.Reconcile(EtaList{eta(baseTime.Add(tolerance), "new")}, baseTime)
	assert.Empty(t, emitted)
	require.Len(t, r.Pending(), 1)
	assert.Equal(t, "new", r.Pending()[0].Destination)
}

func TestReconcileTransientFailureKeepsPending(t *testing.T) {
	r := NewReconciler(tolerance, "cycle")
	r.Reconcile(EtaList{eta(baseTime, "a"), eta(baseTime.Add(10*time.Minute), "b")}, baseTime.Add(-time.Hour))

	emitted := r.Reconcile(TransientFailure{Err: assert.AnError}, baseTime.Add(time.Hour))
	assert.Empty(t, emitted, "a failed poll does not count toward aging")
	assert.Len(t, r.Pending(), 2)
	assert.False(t, r.Done())
}

func TestReconcileManyToManyMatching(t *testing.T) {
	r := NewReconciler(tolerance, "cycle")
	r.Reconcile(EtaList{
		eta(baseTime.Add(10*time.Minute), "a"),
		eta(baseTime.Add(10*time.Minute+50*time.Second), "b"),
		eta(baseTime.Add(20*time.Minute), "c"),
	}, baseTime.Add(-time.Hour))

	// One new record within tolerance of both a and b, two new records within tolerance of c
	r.Reconcile(EtaList{
		eta(baseTime.Add(10*time.Minute+25*time.Second), "ab"),
		eta(baseTime.Add(20*time.Minute-30*time.Second), "c1"),
		eta(baseTime.Add(20*time.Minute+30*time.Second), "c2"),
	}, baseTime)

	emitted := r.Reconcile(NoEta{}, baseTime.Add(time.Hour))
	var destinations []string
	for _, e := range emitted {
		destinations = append(destinations, e.Destination)
	}
	assert.Equal(t, []string{"ab", "c1", "c2"}, destinations)
}

func TestReconcileEmitsInAscendingOrder(t *testing.T) {
	r := NewReconciler(tolerance, "cycle")
	r.Reconcile(EtaList{
		eta(baseTime.Add(-1*time.Minute), "c"),
		eta(baseTime.Add(-5*time.Minute), "a"),
		eta(baseTime.Add(-3*time.Minute), "b"),
	}, baseTime.Add(-time.Hour))

	pending := predictedTimes(r.Pending())
	assert.True(t, pending[0].Before(pending[1]) && pending[1].Before(pending[2]), "pending is sorted")

	emitted := r.Reconcile(NoEta{}, baseTime.Add(time.Hour))
	require.Len(t, emitted, 3)
	assert.Equal(t, "a", emitted[0].Destination)
	assert.Equal(t, "b", emitted[1].Destination)
	assert.Equal(t, "c", emitted[2].Destination)
}

func TestReconcileStableForEqualTimes(t *testing.T) {
	r := NewReconciler(tolerance, "cycle")
	r.Reconcile(EtaList{
		eta(baseTime.Add(10*time.Minute), "late"),
		eta(baseTime, "first"),
		eta(baseTime, "second"),
		eta(baseTime, "third"),
	}, baseTime.Add(-time.Hour))

	for i := 0; i < 3; i++ {
		r.Reconcile(TransientFailure{}, baseTime)
	}

	var destinations []string
	for _, p := range r.Pending() {
		destinations = append(destinations, p.Destination)
	}
	assert.Equal(t, []string{"first", "second", "third", "late"}, destinations)
}

func TestReconcileDriftingPredictionEmittedOnce(t *testing.T) {
	r := NewReconciler(tolerance, "cycle")
	arrival := baseTime.Add(3 * time.Minute)
	now := baseTime

	var emitted []EtaRecord
	for i := 0; i < 18; i++ {
		// The bus slips five seconds every poll
		arrival = arrival.Add(5 * time.Second)
		emitted = append(emitted, r.Reconcile(EtaList{eta(arrival, "bus")}, now)...)
		now = now.Add(10 * time.Second)
	}
	assert.Empty(t, emitted, "a prediction that keeps being updated is never emitted")

	for i := 0; i < 20 && !r.Done(); i++ {
		emitted = append(emitted, r.Reconcile(NoEta{}, now)...)
		now = now.Add(10 * time.Second)
	}

	require.Len(t, emitted, 1)
	assert.Equal(t, arrival, emitted[0].PredictedTime)
	assert.True(t, r.Done())
}

func TestReconcileTerminatesOnNoEta(t *testing.T) {
	r := NewReconciler(tolerance, "cycle")
	r.Reconcile(EtaList{
		eta(baseTime.Add(1*time.Minute), "a"),
		eta(baseTime.Add(8*time.Minute), "b"),
	}, baseTime)

	now := baseTime
	cycles := 0
	for !r.Done() {
		now = now.Add(10 * time.Second)
		r.Reconcile(NoEta{}, now)
		cycles++
		require.Less(t, cycles, 100)
	}

	assert.Equal(t, 54, cycles, "the last record settles one tolerance after its predicted time")
}

func TestFilterNoise(t *testing.T) {
	plain := eta(baseTime, "plain")
	noisy := eta(baseTime, "noisy")
	noisy.Message = "KMB CYCLE message"

	r := NewReconciler(tolerance, "cycle")
	assert.Equal(t, EtaList{plain}, r.FilterNoise(EtaList{plain, noisy}))

	r.NoiseMarker = ""
	assert.Len(t, r.FilterNoise(EtaList{plain, noisy}), 2)
}
