package etascraper

import (
	"bufio"
	"fmt"
	"io"
	"time"
)

const timestampLayout = "2006-01-02 15:04:05"

// Printer writes settled ETAs to the output as tab separated lines
type Printer struct {
	w *bufio.Writer
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: bufio.NewWriter(w)}
}

func (p *Printer) Banner(target Target) error {
	fmt.Fprintf(p.w,
		"Scraping ETA for %s towards %s at stop %s.\n",
		target.Route.RouteNumber,
		target.Route.Destination,
		target.Stop.StopName,
	)

	return p.w.Flush()
}

// Emit writes a batch of records and flushes once the whole batch is written
func (p *Printer) Emit(records []EtaRecord) error {
	for _, record := range records {
		fmt.Fprintf(p.w,
			"%s\t%s\t%s\t%s\t%s\t%s\n",
			record.PredictedTime.Format(timestampLayout),
			record.RouteVariant,
			record.Destination,
			record.ProvidingCompany,
			record.Description,
			record.Message,
		)
	}

	return p.w.Flush()
}

func (p *Printer) Finished(at time.Time) error {
	fmt.Fprintf(p.w, "Scraping finished at %s.\n", at.Format(timestampLayout))

	return p.w.Flush()
}
