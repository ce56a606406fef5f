// Package setup runs the interactive configuration wizard.
package setup

import (
	"fmt"
	"os"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/pnlreport/config"
	"github.com/vadiminshakov/pnlreport/internal/transaction"
)

// GeneratedConfig file the wizard writes.
const GeneratedConfig = "config.gen.yaml"

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)

	summaryStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(highlight).
			Padding(1, 2)
)

func step(title string) {
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("PNL REPORT WIZARD"))
	fmt.Println(stepStyle.Render(title))
}

// RunTUI asks for the report settings, saves them to GeneratedConfig and returns them.
func RunTUI() (config.Config, error) {
	tmp := config.ConfigTmp{
		Input:            "statement.csv",
		Extra:            "extra.csv",
		HomeCurrency:     "USD",
		OutDir:           ".",
		Reference:        transaction.DefaultReference,
		DepositCostBasis: string(transaction.DepositZeroCost),
	}
	var confirm bool

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("PNL REPORT WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Turn a Binance statement into annual PNL.\n"))

	fmt.Println(stepStyle.Render("STEP 1: FILES"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Account statement").
				Description("CSV exported from Binance").
				Value(&tmp.Input).
				Validate(validateStatementPath),
			huh.NewInput().
				Title("Extra info").
				Description("Prices, exchange rates and auto-invest proportions, created when absent").
				Value(&tmp.Extra).
				Validate(validateNotEmpty),
			huh.NewInput().
				Title("Output directory").
				Value(&tmp.OutDir).
				Validate(validateNotEmpty),
		),
	).Run()
	if err != nil {
		return config.Config{}, err
	}

	step("STEP 2: CURRENCIES")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Home currency").
				Description("Annual figures are converted to it (e.g. NOK)").
				Value(&tmp.HomeCurrency).
				Validate(validateHomeCurrency),
			huh.NewInput().
				Title("Reference currency").
				Description("PNL is realized in it").
				Value(&tmp.Reference).
				Validate(validateCurrency),
		),
	).Run()
	if err != nil {
		return config.Config{}, err
	}

	step("STEP 3: ACCOUNTING")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Cost basis of deposits").
				Options(
					huh.NewOption("Zero (whole sale price is profit)", string(transaction.DepositZeroCost)),
					huh.NewOption("Market price at deposit time", string(transaction.DepositPriceHint)),
				).
				Value(&tmp.DepositCostBasis),
			huh.NewConfirm().
				Title("Look up missing prices on Binance?").
				Affirmative("Yes").
				Negative("No, offline").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return config.Config{}, err
	}
	tmp.Offline = !confirm

	step("SUMMARY")
	fmt.Println(summaryStyle.Render(summary(tmp)))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save and run?").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return config.Config{}, err
	}
	if !confirm {
		return config.Config{}, errors.New("setup cancelled")
	}

	if err := save(GeneratedConfig, tmp); err != nil {
		return config.Config{}, err
	}
	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s", GeneratedConfig)))

	return tmp.ToConfig(), nil
}

func summary(c config.ConfigTmp) string {
	lookup := "binance"
	if c.Offline {
		lookup = "offline"
	}
	rows := [][2]string{
		{"Statement", c.Input},
		{"Extra info", c.Extra},
		{"Output", c.OutDir},
		{"Home currency", strings.ToUpper(c.HomeCurrency)},
		{"Reference", strings.ToUpper(c.Reference)},
		{"Deposits", c.DepositCostBasis},
		{"Prices", lookup},
	}
	var b strings.Builder
	for i, r := range rows {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%-14s %s", r[0], r[1])
	}
	return b.String()
}

func save(path string, c config.ConfigTmp) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "generate yaml")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "save config file")
	}
	return nil
}

func validateNotEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("must not be empty")
	}
	return nil
}

func validateStatementPath(s string) error {
	if err := validateNotEmpty(s); err != nil {
		return err
	}
	if _, err := os.Stat(s); err != nil {
		return errors.New("file not found")
	}
	return nil
}

func validateCurrency(s string) error {
	s = strings.TrimSpace(s)
	if len(s) < 3 || len(s) > 10 {
		return errors.New("must be a currency code like NOK or USDT")
	}
	for _, r := range s {
		if !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return errors.New("must contain only letters and digits")
		}
	}
	return nil
}

func validateHomeCurrency(s string) error {
	if money.GetCurrency(strings.ToUpper(strings.TrimSpace(s))) == nil {
		return errors.New("must be an ISO 4217 currency code")
	}
	return nil
}
