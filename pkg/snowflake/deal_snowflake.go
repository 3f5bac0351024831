// Package snowflake issues time-ordered 64-bit ingestion run IDs.
//
// Layout (64 bits): 1 sign bit, 47 bits of milliseconds since the service
// epoch, 6 bits of worker ID, 10 bits of per-millisecond sequence. A worker
// is one server process; a deal backend never runs more than a handful, so
// the worker field is kept small in favor of a longer-lived timestamp.
// IDs from the same worker sort chronologically.
package snowflake

import (
	"errors"
	"sync"
	"time"
)

const (
	// Service epoch: 2025-01-01 00:00:00 UTC.
	epoch int64 = 1735689600000

	workerIDBits = 6
	sequenceBits = 10

	maxWorkerID = (1 << workerIDBits) - 1 // 63
	maxSequence = (1 << sequenceBits) - 1 // 1023

	timestampShift = workerIDBits + sequenceBits // 16
	workerIDShift  = sequenceBits                // 10
)

var (
	ErrInvalidWorkerID = errors.New("worker ID must be between 0 and 63")
	ErrClockMovedBack  = errors.New("clock moved backwards")
)

// Generator produces IDs for a single worker. Safe for concurrent use.
type Generator struct {
	mu       sync.Mutex
	workerID int64
	sequence int64
	lastTime int64
}

// NewGenerator creates a generator for the given worker ID (0 to 63).
func NewGenerator(workerID int64) (*Generator, error) {
	if workerID < 0 || workerID > maxWorkerID {
		return nil, ErrInvalidWorkerID
	}
	return &Generator{workerID: workerID}, nil
}

// Generate returns the next ID. The sequence covers 1024 IDs per
// millisecond; on overflow the call spins into the next millisecond.
func (g *Generator) Generate() (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := currentTimeMillis()
	if now < g.lastTime {
		return 0, ErrClockMovedBack
	}

	if now == g.lastTime {
		g.sequence = (g.sequence + 1) & maxSequence
		if g.sequence == 0 {
			now = waitNextMillis(g.lastTime)
		}
	} else {
		g.sequence = 0
	}
	g.lastTime = now

	id := ((now - epoch) << timestampShift) |
		(g.workerID << workerIDShift) |
		g.sequence
	return id, nil
}

// MustGenerate is Generate panicking on error.
func (g *Generator) MustGenerate() int64 {
	id, err := g.Generate()
	if err != nil {
		panic(err)
	}
	return id
}

// Parse splits an ID back into its timestamp, worker ID, and sequence.
func Parse(id int64) (timestamp time.Time, workerID int64, sequence int64) {
	ts := (id >> timestampShift) + epoch
	timestamp = time.UnixMilli(ts)
	workerID = (id >> workerIDShift) & maxWorkerID
	sequence = id & maxSequence
	return
}

// Timestamp extracts just the creation time of an ID.
func Timestamp(id int64) time.Time {
	return time.UnixMilli((id >> timestampShift) + epoch)
}

func currentTimeMillis() int64 {
	return time.Now().UnixMilli()
}

func waitNextMillis(lastTime int64) int64 {
	now := currentTimeMillis()
	for now <= lastTime {
		time.Sleep(100 * time.Microsecond)
		now = currentTimeMillis()
	}
	return now
}

var (
	globalGen  *Generator
	globalOnce sync.Once
	globalErr  error
)

// Init configures the process-wide generator. Called once at startup; later
// calls keep the first worker ID.
func Init(workerID int64) error {
	globalOnce.Do(func() {
		globalGen, globalErr = NewGenerator(workerID)
	})
	return globalErr
}

// ID returns the next ID from the process-wide generator. Init must have
// been called.
func ID() int64 {
	if globalGen == nil {
		panic("snowflake: global generator not initialized, call Init() first")
	}
	return globalGen.MustGenerate()
}
