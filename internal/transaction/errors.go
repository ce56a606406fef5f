package transaction

import "github.com/pkg/errors"

var (
	// ErrUnknownTransaction returned when the operations of a transaction match no known shape.
	ErrUnknownTransaction = errors.New("unknown transaction")
	// ErrAmbiguousAutoInvest returned when auto-invest spend and acquisition share one second.
	ErrAmbiguousAutoInvest = errors.New("ambiguous auto-invest transaction")
	// ErrMissingPrice returned when a transaction can't be priced without extra info.
	ErrMissingPrice = errors.New("missing price")
	// ErrInconsistent returned for auto-invest changes that are neither spend nor acquisition.
	ErrInconsistent = errors.New("inconsistent transaction")
)
