package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/travigo/etascraper/pkg/etascraper"

	_ "time/tzdata"
)

func main() {
	// stdout is reserved for scraped ETAs
	if os.Getenv("ETASCRAPER_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	app := etascraper.NewApp()

	err := app.Run(etascraper.HoistFlags(os.Args))
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}
