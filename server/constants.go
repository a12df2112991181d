package server

import "time"

// Network defaults.
const (
	DefaultListenAddr    = ":8081"
	DefaultSendQueueSize = 64
	DefaultWriteTimeout  = 10 * time.Second
)

// Rate limiting defaults: per-connection token bucket.
const (
	DefaultRateLimitRequests = 120
	DefaultRateLimitBurst    = 30
	DefaultRateLimitWindow   = 1 * time.Minute
)

// Snapshot persistence defaults.
const (
	DefaultSnapshotPath = "scoregrid.db"
	snapshotBucket      = "snapshot"
	snapshotKey         = "state"
	snapshotOpenTimeout = 1 * time.Second
)
