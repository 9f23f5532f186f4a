package nwst

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

var ErrInvalidRdv = errors.New("invalid route variant")

var rdvRegex = regexp.MustCompile(`^([0-9A-Za-z]+)-([A-Z]{3})-(\d+)$`)

// Rdv identifies a route/direction/variant, written as 970-SOU-1
type Rdv struct {
	RouteNumber string
	Destination string
	Variant     int
}

func ParseRdv(s string) (Rdv, error) {
	matches := rdvRegex.FindStringSubmatch(s)
	if len(matches) != 4 {
		return Rdv{}, fmt.Errorf("%w: %q", ErrInvalidRdv, s)
	}

	variant, err := strconv.Atoi(matches[3])
	if err != nil {
		return Rdv{}, fmt.Errorf("%w: %q: %v", ErrInvalidRdv, s, err)
	}

	return Rdv{
		RouteNumber: matches[1],
		Destination: matches[2],
		Variant:     variant,
	}, nil
}

func (r Rdv) String() string {
	return fmt.Sprintf("%s-%s-%d", r.RouteNumber, r.Destination, r.Variant)
}

func (r Rdv) IsZero() bool {
	return r == Rdv{}
}

func (r Rdv) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Rdv) UnmarshalText(text []byte) error {
	parsed, err := ParseRdv(string(text))
	if err != nil {
		return err
	}

	*r = parsed
	return nil
}
