package etascraper

import (
	"time"

	"github.com/travigo/etascraper/pkg/nwst"
)

// EtaRecord is a single predicted arrival as reported by one poll
type EtaRecord struct {
	PredictedTime    time.Time
	RouteVariant     nwst.Rdv
	Destination      string
	ProvidingCompany string
	Description      string
	Message          string
}

func NewEtaRecord(eta nwst.Eta) EtaRecord {
	return EtaRecord{
		PredictedTime:    eta.Time,
		RouteVariant:     eta.Rdv,
		Destination:      eta.Destination,
		ProvidingCompany: eta.ProvidingCompany,
		Description:      eta.Description,
		Message:          eta.Message,
	}
}

// PollOutcome is one of EtaList, NoEta or TransientFailure
type PollOutcome interface {
	isPollOutcome()
}

type EtaList []EtaRecord

// NoEta means the upstream explicitly said nothing is coming
type NoEta struct {
	Message string
}

// TransientFailure means the poll failed after all retries; Err is the last failure
type TransientFailure struct {
	Err error
}

func (EtaList) isPollOutcome()          {}
func (NoEta) isPollOutcome()            {}
func (TransientFailure) isPollOutcome() {}
