// Package snapshots journals wallet snapshots of report runs in a write-ahead log.
package snapshots

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/gowal"

	"github.com/vadiminshakov/pnlreport/internal/domain"
	"github.com/vadiminshakov/pnlreport/internal/transaction"
)

const (
	defaultSnapshotDir   = "./wal/snapshots"
	snapshotSegmentLimit = 1000
	snapshotMaxSegments  = 100
	snapshotKeyPrefix    = "wallet_snapshot_"
)

// Record journaled wallet snapshot.
type Record struct {
	RunID       string                         `json:"run_id"`
	UTCTime     int64                          `json:"utc_time"`
	Kind        string                         `json:"kind"`
	Transaction string                         `json:"transaction"`
	PNL         decimal.Decimal                `json:"pnl"`
	TxPNL       decimal.Decimal                `json:"tx_pnl"`
	Assets      map[string]domain.AssetBalance `json:"assets"`
}

// IndexedRecord record with its WAL index.
type IndexedRecord struct {
	Index  uint64 `json:"index"`
	Record Record `json:"record"`
}

// NewRecord converts a snapshot into a journal record.
func NewRecord(runID string, s transaction.WalletSnapshot) Record {
	r := Record{
		RunID:  runID,
		PNL:    s.PNL,
		TxPNL:  s.Outcome.PNL,
		Assets: make(map[string]domain.AssetBalance, s.Wallet.Len()),
	}
	if s.Transaction != nil {
		r.UTCTime = s.Transaction.UTCTime
		r.Kind = s.Transaction.Kind.String()
		r.Transaction = s.Transaction.String()
	}
	for _, asset := range s.Wallet.Assets() {
		b, _ := s.Wallet.Balance(asset)
		r.Assets[asset] = b
	}
	return r
}

// WALStore persists the snapshots of one run in a WAL shared by all runs.
type WALStore struct {
	wal   *gowal.Wal
	runID string
	mu    sync.RWMutex
}

// NewWALStore initializes a WAL-backed snapshot store under the provided directory.
func NewWALStore(dir, runID string) (*WALStore, error) {
	if dir == "" {
		dir = defaultSnapshotDir
	}
	if runID == "" {
		return nil, errors.New("snapshot run id is required")
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "snapshot_",
		SegmentThreshold: snapshotSegmentLimit,
		MaxSegments:      snapshotMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init wallet snapshot WAL")
	}

	return &WALStore{wal: wal, runID: runID}, nil
}

// RunID identifier of the run this store writes for.
func (s *WALStore) RunID() string {
	return s.runID
}

// Save appends the snapshot to the WAL.
func (s *WALStore) Save(snapshot transaction.WalletSnapshot) error {
	if s == nil || s.wal == nil {
		return errors.New("wallet snapshot store is not initialized")
	}

	payload, err := json.Marshal(NewRecord(s.runID, snapshot))
	if err != nil {
		return errors.Wrap(err, "marshal wallet snapshot")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, snapshotKeyPrefix+s.runID, payload)
}

// RecordsAfter returns the snapshots of the store's run written after the provided WAL index.
func (s *WALStore) RecordsAfter(index uint64) ([]IndexedRecord, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("wallet snapshot store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	key := snapshotKeyPrefix + s.runID
	records := make([]IndexedRecord, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		k, payload, ok := s.wal.Get(idx)
		if !ok || k != key {
			continue
		}
		var r Record
		if err := json.Unmarshal(payload, &r); err != nil {
			return nil, errors.Wrap(err, "decode wallet snapshot")
		}
		records = append(records, IndexedRecord{Index: idx, Record: r})
	}

	return records, nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("wallet snapshot store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
