// Command pnlreport computes realized PNL from a Binance account statement.
// It groups the statement rows into transactions, applies average-cost accounting
// and writes the transaction log and the annual reports as CSV.
//
// Usage:
//
//	pnlreport --config config.yaml
//	pnlreport --input statement.csv --currency NOK
//	pnlreport --setup (interactive wizard)
//
// Prices and exchange rates the run cannot find are written to missing-extra-info.csv;
// complete them, append them to the extra info file and run again. The exit code is 2
// in that case.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/pnlreport/config"
	"github.com/vadiminshakov/pnlreport/internal"
	"github.com/vadiminshakov/pnlreport/internal/report"
	"github.com/vadiminshakov/pnlreport/internal/setup"
)

const (
	exitOK = iota
	exitFailure
	exitMissingExtraInfo
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns instead of exiting so that the journal is closed and the logger synced.
func run(args []string) int {
	conf, err := config.Parse(args)
	if err != nil {
		log.Print(err)
		return exitFailure
	}

	if conf.Setup {
		debug := conf.Debug
		conf, err = setup.RunTUI()
		if err != nil {
			log.Print(err)
			return exitFailure
		}
		conf.Debug = debug
	}

	logger, err := newLogger(conf.Debug)
	if err != nil {
		log.Print(err)
		return exitFailure
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, err := internal.NewGenerator(logger, conf)
	if err != nil {
		logger.Error("failed to create generator", zap.Error(err))
		return exitFailure
	}
	defer func() {
		if err := g.Close(); err != nil {
			logger.Error("failed to close snapshot journal", zap.Error(err))
		}
	}()

	summary, err := g.Run(ctx)
	fmt.Print(summary.Render(conf.HomeCurrency))
	if err != nil {
		if errors.Is(err, report.ErrMissingExtraInfo) {
			return exitMissingExtraInfo
		}
		logger.Error("report failed", zap.Error(err))
		return exitFailure
	}

	if err := g.Serve(ctx); err != nil {
		logger.Error("snapshot viewer failed", zap.Error(err))
		return exitFailure
	}
	return exitOK
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
