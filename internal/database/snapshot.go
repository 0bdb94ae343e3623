package database

const SnapshotPrefix string = "cache-"

// CacheRecord is one persisted geocode cache entry. Reverse lookups fill
// the place fields, postal lookups fill the coordinate and address.
type CacheRecord struct {
	Key            string
	StoredAt       int64
	City           string
	State          string
	Country        string
	Lat            float64
	Lng            float64
	DisplayAddress string
}

// Snapshot is the whole cache stored under a single namespace, in
// insertion order.
type Snapshot struct {
	Records []CacheRecord
}

func (db *DB) GetSnapshot(namespace string) (*Snapshot, error) {
	return getRecord[Snapshot](db, SnapshotPrefix+namespace)
}

func (db *DB) SaveSnapshot(namespace string, s *Snapshot) error {
	return saveRecord(db, SnapshotPrefix+namespace, s)
}

func (db *DB) DeleteSnapshot(namespace string) error {
	return deleteRecord(db, SnapshotPrefix+namespace)
}
