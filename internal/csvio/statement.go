// Package csvio reads Binance account statements and extra info files and writes the
// transaction log and annual reports as CSV.
package csvio

import (
	"encoding/csv"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/pnlreport/internal/domain"
)

const commentPrefix = "#"

var statementHeader = []string{"User_ID", "UTC_Time", "Account", "Operation", "Coin", "Change", "Remark"}

const (
	colUTCTime = iota + 1
	colAccount
	colOperation
	colCoin
	colChange
	colRemark
)

// ReadStatementFile reads a Binance account statement export.
func ReadStatementFile(l *zap.Logger, path string) ([]domain.RawAccountChange, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open statement")
	}
	defer f.Close()

	changes, err := ReadStatement(l, f)
	if err != nil {
		return nil, errors.Wrapf(err, "read statement %s", path)
	}
	return changes, nil
}

// ReadStatement parses statement rows and returns them stably sorted by time.
// Rows starting with "#" are skipped.
func ReadStatement(l *zap.Logger, r io.Reader) ([]domain.RawAccountChange, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(domain.ErrMalformedInput, "statement header is missing")
	}
	if err := checkHeader(header, statementHeader); err != nil {
		return nil, err
	}

	var changes []domain.RawAccountChange
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(domain.ErrMalformedInput, err.Error())
		}
		line, _ := cr.FieldPos(0)

		if len(record) > 0 && strings.HasPrefix(strings.TrimSpace(record[0]), commentPrefix) {
			l.Error("commented out row", zap.Int("line", line), zap.String("row", strings.Join(record, ",")))
			continue
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}

		c, err := parseStatementRow(record)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		changes = append(changes, c)
	}

	sort.SliceStable(changes, func(i, j int) bool { return changes[i].UTCTime < changes[j].UTCTime })
	l.Debug("statement parsed", zap.Int("changes", len(changes)))
	return changes, nil
}

func parseStatementRow(record []string) (domain.RawAccountChange, error) {
	if len(record) < len(statementHeader)-1 {
		return domain.RawAccountChange{}, errors.Wrapf(domain.ErrMalformedInput, "expected %d columns, got %d",
			len(statementHeader), len(record))
	}
	for i := range record {
		record[i] = strings.Trim(strings.TrimSpace(record[i]), `"`)
	}

	utcTime, err := domain.ParseUTC(record[colUTCTime])
	if err != nil {
		return domain.RawAccountChange{}, err
	}
	account, err := domain.ParseAccountType(record[colAccount])
	if err != nil {
		return domain.RawAccountChange{}, err
	}
	op, err := domain.ParseOperation(record[colOperation])
	if err != nil {
		return domain.RawAccountChange{}, err
	}
	amount, err := decimal.NewFromString(record[colChange])
	if err != nil {
		return domain.RawAccountChange{}, errors.Wrapf(domain.ErrMalformedInput, "invalid change %q", record[colChange])
	}
	remark := ""
	if len(record) > colRemark {
		remark = record[colRemark]
	}

	return domain.NewRawAccountChange(utcTime, account, op, strings.ToUpper(record[colCoin]), amount, remark), nil
}

func checkHeader(header, expected []string) error {
	if len(header) < len(expected)-1 {
		return errors.Wrapf(domain.ErrMalformedInput, "unexpected header %v", header)
	}
	for i, name := range expected {
		if i >= len(header) {
			break
		}
		got := strings.Trim(strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff")), `"`)
		if !strings.EqualFold(got, name) {
			return errors.Wrapf(domain.ErrMalformedInput, "unexpected column %d %q, expected %q", i+1, got, name)
		}
	}
	return nil
}
