package nwst

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidBound = errors.New("invalid bound")

type Bound string

const (
	BoundInbound  Bound = "I"
	BoundOutbound Bound = "O"
)

func ParseBound(s string) (Bound, error) {
	switch Bound(s) {
	case BoundInbound, BoundOutbound:
		return Bound(s), nil
	default:
		return "", fmt.Errorf("%w: %q, must be I or O", ErrInvalidBound, s)
	}
}

type Route struct {
	ID          string `json:"id"`
	Company     string `json:"company"`
	RouteNumber string `json:"route_number"`
	Bound       Bound  `json:"bound"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

type Variant struct {
	Rdv         Rdv    `json:"rdv"`
	Description string `json:"description"`
}

type RouteStop struct {
	Sequence int    `json:"sequence"`
	StopID   int    `json:"stop_id"`
	StopName string `json:"stop_name"`
}

type Eta struct {
	Time             time.Time `json:"time"`
	Rdv              Rdv       `json:"rdv"`
	Destination      string    `json:"destination"`
	ProvidingCompany string    `json:"providing_company"`
	Description      string    `json:"description"`
	Message          string    `json:"message"`
}

// NoEta is returned when the upstream explicitly reports that nothing is coming
type NoEta struct {
	Message string `json:"message"`
}

type etaResponse struct {
	Etas  []Eta  `json:"etas"`
	NoEta *NoEta `json:"no_eta"`
}
