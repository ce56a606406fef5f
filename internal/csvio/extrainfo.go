package csvio

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/vadiminshakov/pnlreport/internal/domain"
)

var extraInfoHeader = []string{"utc_time", "type", "asset", "value"}

// ReadExtraInfoFile reads the extra info file; a missing file is an empty table.
func ReadExtraInfoFile(path string) (*domain.ExtraInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.NewExtraInfo(), nil
		}
		return nil, errors.Wrap(err, "open extra info")
	}
	defer f.Close()

	x, err := ReadExtraInfo(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read extra info %s", path)
	}
	return x, nil
}

// ReadExtraInfo parses extra info rows. Time is either a formatted UTC time or milliseconds.
func ReadExtraInfo(r io.Reader) (*domain.ExtraInfo, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	x := domain.NewExtraInfo()
	header, err := cr.Read()
	if err == io.EOF {
		return x, nil
	}
	if err != nil {
		return nil, errors.Wrap(domain.ErrMalformedInput, err.Error())
	}
	if err := checkHeader(header, extraInfoHeader); err != nil {
		return nil, err
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(domain.ErrMalformedInput, err.Error())
		}
		line, _ := cr.FieldPos(0)
		if len(record) != len(extraInfoHeader) {
			return nil, errors.Wrapf(domain.ErrMalformedInput, "line %d: expected %d columns, got %d",
				line, len(extraInfoHeader), len(record))
		}

		utcTime, err := parseTime(record[0])
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		t, err := domain.ParseExtraInfoType(record[1])
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		x.Add(domain.ExtraInfoEntry{
			UTCTime: utcTime,
			Type:    t,
			Asset:   strings.ToUpper(strings.TrimSpace(record[2])),
			Value:   strings.TrimSpace(record[3]),
		})
	}
	return x, nil
}

func parseTime(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, nil
	}
	return domain.ParseUTC(s)
}

// WriteExtraInfo writes all entries ordered by time.
func WriteExtraInfo(w io.Writer, entries []domain.ExtraInfoEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(extraInfoHeader); err != nil {
		return errors.Wrap(err, "write extra info header")
	}
	for _, e := range entries {
		if err := cw.Write([]string{domain.FormatUTC(e.UTCTime), e.Type.String(), e.Asset, e.Value}); err != nil {
			return errors.Wrap(err, "write extra info row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush extra info")
}

// WriteExtraInfoFile stores the table atomically via temp file.
func WriteExtraInfoFile(path string, x *domain.ExtraInfo) error {
	return writeFileAtomic(path, func(w io.Writer) error {
		return WriteExtraInfo(w, x.Entries())
	})
}

// WriteMissingExtraInfoFile stores the hint entries the user has to complete.
func WriteMissingExtraInfoFile(path string, entries []domain.ExtraInfoEntry) error {
	return writeFileAtomic(path, func(w io.Writer) error {
		return WriteExtraInfo(w, entries)
	})
}

func writeFileAtomic(path string, write func(w io.Writer) error) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "persist %s", path)
	}
	return nil
}
