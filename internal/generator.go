package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/adshao/go-binance/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/pnlreport/config"
	"github.com/vadiminshakov/pnlreport/internal/csvio"
	"github.com/vadiminshakov/pnlreport/internal/domain"
	"github.com/vadiminshakov/pnlreport/internal/report"
	"github.com/vadiminshakov/pnlreport/internal/services/pricer"
	"github.com/vadiminshakov/pnlreport/internal/storage/snapshots"
	"github.com/vadiminshakov/pnlreport/internal/web"
)

const (
	transactionsFile = "transactions.csv"
	annualFile       = "annual.csv"
	missingFile      = "missing-extra-info.csv"
)

// Summary outcome of one generator run.
type Summary struct {
	RunID        string
	Transactions int
	TotalPNL     decimal.Decimal
	Annual       []report.AnnualReport
	// Missing entries written to the missing extra info file, empty on success.
	Missing []domain.ExtraInfoEntry
	Files   []string
}

// Generator produces the transaction log and annual reports of one statement.
type Generator struct {
	Config config.Config

	l       *zap.Logger
	runID   string
	pricer  report.Pricer
	journal *snapshots.WALStore
	server  *web.Server
}

// NewGenerator wires the pricer, the snapshot journal and the viewer according to conf.
func NewGenerator(l *zap.Logger, conf config.Config) (*Generator, error) {
	g := &Generator{
		Config: conf,
		runID:  uuid.NewString(),
	}
	g.l = l.With(zap.String("run_id", g.runID))

	if !conf.Offline {
		g.pricer = pricer.NewBinancePricer(g.l, binance.NewClient("", ""), conf.Reference)
	}

	if conf.WALDir != "" {
		journal, err := snapshots.NewWALStore(conf.WALDir, g.runID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open snapshot journal")
		}
		g.journal = journal
	}

	if conf.HTTPAddr != "" {
		if g.journal == nil {
			return nil, errors.New("snapshot viewer needs the journal, set --wal-dir")
		}
		g.server = web.NewServer(g.l, conf.HTTPAddr, g.journal)
	}

	return g, nil
}

// Close releases the journal.
func (g *Generator) Close() error {
	if g.journal == nil {
		return nil
	}
	return g.journal.Close()
}

// Run executes one report run. When extra info is missing the hints are written to
// the output directory and the returned error matches report.ErrMissingExtraInfo.
func (g *Generator) Run(ctx context.Context) (Summary, error) {
	summary := Summary{RunID: g.runID}

	acc, err := g.Config.Accounting()
	if err != nil {
		return summary, err
	}

	changes, err := csvio.ReadStatementFile(g.l, g.Config.Input)
	if err != nil {
		return summary, err
	}
	extra, err := csvio.ReadExtraInfoFile(g.Config.Extra)
	if err != nil {
		return summary, err
	}
	knownExtra := len(extra.Entries())

	if err := os.MkdirAll(g.Config.OutDir, 0o755); err != nil {
		return summary, errors.Wrap(err, "failed to create output directory")
	}

	opts := []report.Option{}
	if g.pricer != nil {
		opts = append(opts, report.WithPricer(g.pricer))
	}
	if g.journal != nil {
		opts = append(opts, report.WithJournal(g.journal))
	}
	r := report.New(g.l, acc, extra, opts...)

	g.l.Info("processing statement", zap.String("input", g.Config.Input), zap.Int("changes", len(changes)))

	runErr := r.Run(ctx, changes)
	var annual []report.AnnualReport
	if runErr == nil {
		summary.Transactions = len(r.Transactions())
		if snaps := r.Snapshots(); len(snaps) > 0 {
			summary.TotalPNL = snaps[len(snaps)-1].PNL
		}

		path := filepath.Join(g.Config.OutDir, transactionsFile)
		if err := csvio.WriteTransactionLogFile(path, r.Snapshots()); err != nil {
			return summary, err
		}
		summary.Files = append(summary.Files, path)

		annual, runErr = r.AnnualReports(ctx)
	}

	// prices found by the pricer are kept even when the run fails
	if len(extra.Entries()) > knownExtra {
		if err := csvio.WriteExtraInfoFile(g.Config.Extra, extra); err != nil {
			return summary, err
		}
		g.l.Info("extra info updated", zap.String("path", g.Config.Extra), zap.Int("added", len(extra.Entries())-knownExtra))
		summary.Files = append(summary.Files, g.Config.Extra)
	}

	if runErr != nil {
		var missing *report.MissingExtraInfoError
		if !errors.As(runErr, &missing) {
			return summary, runErr
		}
		path := filepath.Join(g.Config.OutDir, missingFile)
		if err := csvio.WriteMissingExtraInfoFile(path, missing.Entries); err != nil {
			return summary, err
		}
		summary.Missing = missing.Entries
		summary.Files = append(summary.Files, path)
		g.l.Warn("extra info is missing", zap.String("hints", path), zap.Int("entries", len(missing.Entries)))
		return summary, runErr
	}

	path := filepath.Join(g.Config.OutDir, annualFile)
	if err := csvio.WriteAnnualReportsFile(path, annual); err != nil {
		return summary, err
	}
	summary.Annual = annual
	summary.Files = append(summary.Files, path)

	if g.server != nil {
		g.server.SetAnnualReports(annual)
	}

	return summary, nil
}

// Serve runs the snapshot viewer until ctx is done; without --http it returns at once.
func (g *Generator) Serve(ctx context.Context) error {
	if g.server == nil {
		return nil
	}
	return g.server.Start(ctx)
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"})
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
)

// Render formats the summary for the terminal.
func (s Summary) Render(homeCurrency string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("PNL report " + s.RunID))
	b.WriteString("\n")
	fmt.Fprintf(&b, "transactions: %d\ntotal pnl: %s\n", s.Transactions, s.TotalPNL.StringFixed(2))

	if len(s.Annual) > 0 {
		rows := []string{fmt.Sprintf("%-6s %14s %14s %16s", "year", "pnl", "pnl "+homeCurrency, "wallet "+homeCurrency)}
		for _, a := range s.Annual {
			rows = append(rows, fmt.Sprintf("%-6d %14s %14s %16s", a.Year(),
				a.PNLReference.StringFixed(2), homeAmount(a.PNLHome, homeCurrency), homeAmount(a.WalletValueHome, homeCurrency)))
		}
		b.WriteString(boxStyle.Render(strings.Join(rows, "\n")))
		b.WriteString("\n")
	}
	if len(s.Missing) > 0 {
		b.WriteString(warnStyle.Render(fmt.Sprintf("%d extra info entries missing, fill them in and add to the extra info file", len(s.Missing))))
		b.WriteString("\n")
	}
	for _, f := range s.Files {
		fmt.Fprintf(&b, "-> %s\n", f)
	}
	return b.String()
}

// homeAmount formats d in currency, rounded to the currency's minor unit like annual.csv.
func homeAmount(d decimal.Decimal, currency string) string {
	c := money.GetCurrency(currency)
	if c == nil {
		return d.StringFixed(2)
	}
	fraction := int32(c.Fraction)
	return money.New(d.Round(fraction).Shift(fraction).IntPart(), c.Code).Display()
}
