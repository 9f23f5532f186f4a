package etascraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/travigo/etascraper/pkg/config"
	"github.com/travigo/etascraper/pkg/nwst"
	"github.com/travigo/etascraper/pkg/redis_client"
	"github.com/travigo/etascraper/pkg/util"
	"github.com/urfave/cli/v2"
)

var ErrInvalidSequence = errors.New("invalid stop sequence")

func NewApp() *cli.App {
	return &cli.App{
		Name:            "eta-scraper",
		Usage:           "Print bus arrival predictions for a stop once they have settled",
		ArgsUsage:       "<route_number> <bound> [RDV] [sequence]",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "log every poll and candidate arrival to stderr",
			},
		},
		Action: run,
	}
}

func printUsage(w io.Writer, name string) {
	fmt.Fprintf(w, "Usage: %s <route_number> <bound> [RDV] [sequence] [--debug]\n", name)
	fmt.Fprintln(w, "Bound is I or O, standing for inbound or outbound respectively.")
	fmt.Fprintln(w, "RDV is in form of 970-SOU-1, default is the first variant got from the variant list.")
	fmt.Fprintln(w, "sequence is to specify which stop to get the ETA, default is 1.")
}

func run(c *cli.Context) error {
	if c.NArg() < 2 {
		printUsage(c.App.ErrWriter, c.App.Name)
		return cli.Exit("", 1)
	}

	args := c.Args()
	routeNumber := args.Get(0)

	bound, err := nwst.ParseBound(args.Get(1))
	if err != nil {
		return err
	}

	var rdv nwst.Rdv
	if c.NArg() > 2 {
		if rdv, err = nwst.ParseRdv(args.Get(2)); err != nil {
			return err
		}
	}

	sequence := 1
	if c.NArg() > 3 {
		if sequence, err = parseSequence(args.Get(3)); err != nil {
			return err
		}
	}

	cfg, err := config.Load(util.GetEnvironmentVariables())
	if err != nil {
		return err
	}
	if c.Bool("debug") {
		cfg.Debug = true
	}

	logger := log.Logger.Level(zerolog.InfoLevel)
	if cfg.Debug {
		logger = log.Logger.Level(zerolog.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := nwst.NewClient(cfg.BaseURL, cfg.Language, cfg.HTTPTimeout.Duration())
	var api nwst.API = client

	if cfg.Redis.Enabled() {
		if err := redis_client.Connect(ctx, cfg.Redis); err != nil {
			logger.Warn().Err(err).Msg("Lookup cache disabled")
		} else {
			defer redis_client.Close()

			api = nwst.NewCachedAPI(
				client,
				redis_client.Client,
				cfg.Redis.CacheTTL.Duration(),
				fmt.Sprintf("nwst:%s", cfg.Language),
				logger,
			)
		}
	}

	resolver := Resolver{API: api, Logger: logger}
	target, err := resolver.Resolve(ctx, routeNumber, bound, rdv, sequence)
	if err != nil {
		return err
	}

	printer := NewPrinter(c.App.Writer)
	if err := printer.Banner(target); err != nil {
		return err
	}

	logger.Info().
		Str("route", target.Route.RouteNumber).
		Str("bound", string(target.Route.Bound)).
		Str("rdv", target.Rdv.String()).
		Int("stop", target.Stop.StopID).
		Dur("interval", cfg.PollInterval.Duration()).
		Dur("tolerance", cfg.Tolerance.Duration()).
		Msg("Starting ETA scraper")

	scraper := Scraper{
		Source: &Fetcher{
			API:        api,
			Attempts:   cfg.FetchAttempts,
			RetryDelay: cfg.RetryDelay.Duration(),
			Logger:     logger,
		},
		Reconciler:   NewReconciler(cfg.Tolerance.Duration(), cfg.NoiseMarker),
		Printer:      printer,
		PollInterval: cfg.PollInterval.Duration(),
		Logger:       logger,
	}

	if err := scraper.Run(ctx, target); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn().Msg("Scraping interrupted")
			return nil
		}
		return err
	}

	return nil
}

func parseSequence(s string) (int, error) {
	sequence, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidSequence, s)
	}
	if sequence < 1 {
		return 0, fmt.Errorf("%w: %d must be positive", ErrInvalidSequence, sequence)
	}

	return sequence, nil
}

// HoistFlags moves flags ahead of the positional arguments so they are accepted
// anywhere on the command line
func HoistFlags(args []string) []string {
	if len(args) == 0 {
		return args
	}

	var flags, positionals []string
	for i := 1; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			positionals = append(positionals, args[i:]...)
			break
		}

		if isFlag(arg) {
			flags = append(flags, arg)
		} else {
			positionals = append(positionals, arg)
		}
	}

	hoisted := make([]string, 0, len(args))
	hoisted = append(hoisted, args[0])
	hoisted = append(hoisted, flags...)
	hoisted = append(hoisted, positionals...)

	return hoisted
}

func isFlag(arg string) bool {
	name := strings.TrimLeft(arg, "-")
	if name == arg || name == "" {
		return false
	}

	first := name[0]
	return (first >= 'a' && first <= 'z') || (first >= 'A' && first <= 'Z')
}
