package restore

import (
	"time"

	"github.com/google/uuid"
)

// Clock abstracts time retrieval so safety-copy naming and retention
// decisions are deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator abstracts unique ID generation so tests are deterministic.
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.New().String() }

// timestampFormat is the token embedded in safety-copy and scratch names.
// Lexicographic order matches chronological order.
const timestampFormat = "20060102T150405Z"
