package report

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/pnlreport/internal/domain"
)

// ErrMissingExtraInfo returned when extra info needed for the report is absent.
var ErrMissingExtraInfo = errors.New("missing extra info")

// MissingExtraInfoError lists the entries the user has to provide. Values are hints.
type MissingExtraInfoError struct {
	Entries []domain.ExtraInfoEntry
}

func (e *MissingExtraInfoError) Error() string {
	parts := make([]string, len(e.Entries))
	for i, entry := range e.Entries {
		parts[i] = entry.String()
	}
	return fmt.Sprintf("%s: %d entries needed [%s]", ErrMissingExtraInfo, len(e.Entries), strings.Join(parts, "; "))
}

// Is makes errors.Is(err, ErrMissingExtraInfo) hold.
func (e *MissingExtraInfoError) Is(target error) bool {
	return target == ErrMissingExtraInfo
}
