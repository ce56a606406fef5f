// Package config loads report settings from a YAML file or command-line flags.
package config

import (
	"flag"
	"os"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/pnlreport/internal/transaction"
)

const (
	defaultOutDir   = "."
	defaultExtra    = "extra.csv"
	defaultWALDir   = "./wal/snapshots"
	defaultHTTP     = ""
	defaultCurrency = "USD"
)

// Config settings of one report run.
type Config struct {
	// Input path to the Binance account statement CSV.
	Input string
	// Extra path to the extra info CSV, created when absent.
	Extra string
	// HomeCurrency currency of the annual report conversions, e.g. NOK.
	HomeCurrency     string
	OutDir           string
	Reference        string
	USDLike          []string
	DepositCostBasis transaction.DepositCostBasis
	// WALDir snapshot journal directory, empty disables the journal.
	WALDir string
	// HTTPAddr address of the snapshot viewer, empty disables it.
	HTTPAddr string
	// Offline disables the Binance price lookup.
	Offline bool
	Debug   bool
	// Setup runs the configuration wizard.
	Setup bool
}

// Accounting accounting parameters of the run.
func (c Config) Accounting() (transaction.Accounting, error) {
	return transaction.NewAccounting(c.Reference, c.USDLike, c.DepositCostBasis)
}

// ConfigTmp YAML representation of Config.
type ConfigTmp struct {
	Input            string   `yaml:"input"`
	Extra            string   `yaml:"extra,omitempty"`
	HomeCurrency     string   `yaml:"currency"`
	OutDir           string   `yaml:"out_dir,omitempty"`
	Reference        string   `yaml:"reference,omitempty"`
	USDLike          []string `yaml:"usd_like,omitempty"`
	DepositCostBasis string   `yaml:"deposit_cost_basis,omitempty"`
	WALDir           string   `yaml:"wal_dir,omitempty"`
	HTTPAddr         string   `yaml:"http,omitempty"`
	Offline          bool     `yaml:"offline,omitempty"`
}

// Parse reads the configuration from command-line args.
func Parse(args []string) (Config, error) {
	return parse(flag.NewFlagSet("pnlreport", flag.ContinueOnError), args)
}

func parse(fs *flag.FlagSet, args []string) (Config, error) {
	configPath := fs.String("config", "", "path to yaml config")
	input := fs.String("input", "", "path to the Binance account statement CSV")
	extra := fs.String("extra", defaultExtra, "path to the extra info CSV")
	currency := fs.String("currency", defaultCurrency, "home currency of the annual report, example: NOK")
	outDir := fs.String("out-dir", defaultOutDir, "directory for transactions.csv and annual.csv")
	reference := fs.String("reference", transaction.DefaultReference, "reference currency PNL is realized in")
	depositBasis := fs.String("deposit-cost-basis", string(transaction.DepositZeroCost), "obtain price of deposits: zero or price_hint")
	walDir := fs.String("wal-dir", defaultWALDir, "snapshot journal directory, empty to disable")
	httpAddr := fs.String("http", defaultHTTP, "address of the snapshot viewer, example: :8080")
	offline := fs.Bool("offline", false, "do not ask Binance for missing prices")
	debug := fs.Bool("debug", false, "verbose logging")
	setup := fs.Bool("setup", false, "run the configuration wizard")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *configPath != "" {
		cfg, err := getYaml(*configPath)
		if err != nil {
			return Config{}, err
		}
		cfg.Debug, cfg.Setup = *debug, *setup
		return cfg, nil
	}

	cfg := Config{
		Input:            *input,
		Extra:            *extra,
		HomeCurrency:     *currency,
		OutDir:           *outDir,
		Reference:        *reference,
		DepositCostBasis: transaction.DepositCostBasis(*depositBasis),
		WALDir:           *walDir,
		HTTPAddr:         *httpAddr,
		Offline:          *offline,
		Debug:            *debug,
		Setup:            *setup,
	}
	if cfg.Setup {
		return cfg, nil
	}
	return cfg, validate(&cfg)
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read yaml config")
	}

	var c ConfigTmp
	if err := yaml.Unmarshal(f, &c); err != nil {
		return Config{}, errors.Wrap(err, "parse yaml config")
	}

	cfg := c.ToConfig()
	if err := validate(&cfg); err != nil {
		return Config{}, errors.Wrapf(err, "yaml config %s", path)
	}
	return cfg, nil
}

// ToConfig applies defaults to the YAML representation.
func (c ConfigTmp) ToConfig() Config {
	cfg := Config{
		Input:            c.Input,
		Extra:            c.Extra,
		HomeCurrency:     c.HomeCurrency,
		OutDir:           c.OutDir,
		Reference:        c.Reference,
		USDLike:          c.USDLike,
		DepositCostBasis: transaction.DepositCostBasis(c.DepositCostBasis),
		WALDir:           c.WALDir,
		HTTPAddr:         c.HTTPAddr,
		Offline:          c.Offline,
	}
	if cfg.Extra == "" {
		cfg.Extra = defaultExtra
	}
	if cfg.OutDir == "" {
		cfg.OutDir = defaultOutDir
	}
	if cfg.Reference == "" {
		cfg.Reference = transaction.DefaultReference
	}
	if cfg.DepositCostBasis == "" {
		cfg.DepositCostBasis = transaction.DepositZeroCost
	}
	if cfg.HomeCurrency == "" {
		cfg.HomeCurrency = defaultCurrency
	}
	if len(cfg.USDLike) == 0 {
		cfg.USDLike = transaction.DefaultUSDLike
	}
	return cfg
}

func validate(cfg *Config) error {
	if cfg.Input == "" {
		return errors.New("input statement is required, use --input")
	}
	cfg.HomeCurrency = strings.ToUpper(strings.TrimSpace(cfg.HomeCurrency))
	if cfg.HomeCurrency == "" {
		return errors.New("home currency is required, use --currency")
	}
	if money.GetCurrency(cfg.HomeCurrency) == nil {
		return errors.Errorf("unknown home currency %q, expected an ISO 4217 code", cfg.HomeCurrency)
	}
	cfg.Reference = strings.ToUpper(strings.TrimSpace(cfg.Reference))
	if len(cfg.USDLike) == 0 {
		cfg.USDLike = transaction.DefaultUSDLike
	}
	if !cfg.DepositCostBasis.IsValid() {
		return errors.Errorf("invalid --deposit-cost-basis %q, expected zero or price_hint", cfg.DepositCostBasis)
	}
	return nil
}
