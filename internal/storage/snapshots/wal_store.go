// Package snapshots persists assembled snapshot records in a write-ahead log.
package snapshots

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
)

const (
	defaultSnapshotDir   = "./wal/snapshots"
	snapshotSegmentLimit = 1000
	snapshotMaxSegments  = 100
	snapshotKeyPrefix    = "snapshot_"
)

// TableRecord rows of one table written in one WAL entry.
type TableRecord struct {
	Index   uint64   `json:"index"`
	Table   string   `json:"table"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// WALStore persists snapshot records in a WAL for recovery/streaming purposes.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes a WAL-backed snapshot store under the provided directory.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = defaultSnapshotDir
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
		return nil, errors.Wrap(err, "init snapshot WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Name identifies the sink in logs.
func (s *WALStore) Name() string {
	return "wal"
}

// Write appends the rows of table as one WAL entry.
func (s *WALStore) Write(_ context.Context, table string, columns []string, rows [][]any) error {
	if s == nil || s.wal == nil {
		return errors.New("snapshot store is not initialized")
	}
	if table == "" {
		return fmt.Errorf("snapshot table is required")
	}

	payload, err := json.Marshal(TableRecord{Table: table, Columns: columns, Rows: rows})
	if err != nil {
		return errors.Wrapf(err, "marshal %s rows", table)
	}

	key := snapshotKeyPrefix + table

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, key, payload)
}

// RecordsAfter returns all records written after the provided WAL index.
func (s *WALStore) RecordsAfter(index uint64) ([]TableRecord, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("snapshot store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]TableRecord, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		record, ok, err := s.get(idx)
		if err != nil {
			return nil, err
		}
		if ok {
			records = append(records, record)
		}
	}

	return records, nil
}

// Latest returns the most recent record of table.
func (s *WALStore) Latest(table string) (TableRecord, bool, error) {
	if s == nil || s.wal == nil {
		return TableRecord{}, false, errors.New("snapshot store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for idx := s.wal.CurrentIndex(); idx > 0; idx-- {
		record, ok, err := s.get(idx)
		if err != nil {
			return TableRecord{}, false, err
		}
		if ok && record.Table == table {
			return record, true, nil
		}
	}

	return TableRecord{}, false, nil
}

func (s *WALStore) get(idx uint64) (TableRecord, bool, error) {
	key, payload, ok := s.wal.Get(idx)
	if !ok || !strings.HasPrefix(key, snapshotKeyPrefix) {
		return TableRecord{}, false, nil
	}

	var record TableRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return TableRecord{}, false, errors.Wrap(err, "decode snapshot record")
	}
	record.Index = idx

	return record, true, nil
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
		return errors.New("snapshot store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
