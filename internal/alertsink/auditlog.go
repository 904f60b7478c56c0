package alertsink

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const alertBucket = "alerts"

// BoltAuditLog persists Records to a bbolt database, keyed by a fixed-width
// UTC creation timestamp so that key order is chronological, matching the
// teacher's BoltStorage bucket-per-concern layout.
type BoltAuditLog struct {
	db *bbolt.DB
}

// NewBoltAuditLog opens (creating if absent) the audit database at dbPath.
func NewBoltAuditLog(dbPath string) (*BoltAuditLog, error) {
	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open alert audit database: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(alertBucket))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create alert bucket: %w", err)
	}
	return &BoltAuditLog{db: db}, nil
}

func (l *BoltAuditLog) Close() error {
	return l.db.Close()
}

func (l *BoltAuditLog) Append(r Record) error {
	return l.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(alertBucket))
		encoded, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to encode alert record: %w", err)
		}
		return b.Put([]byte(r.CreatedAt.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")), encoded)
	})
}

func (l *BoltAuditLog) Recent(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []Record
	err := l.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(alertBucket))
		c := b.Cursor()
		count := 0
		for k, v := c.Last(); k != nil && count < limit; k, v = c.Prev() {
			var r Record
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("failed to decode alert record: %w", err)
			}
			records = append(records, r)
			count++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

var _ AuditLog = (*BoltAuditLog)(nil)
