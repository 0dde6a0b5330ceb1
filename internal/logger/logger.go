// Package logger builds the application's zap logger. Every entry is
// additionally captured in a bounded in-memory ring so that recent log
// history survives for post-hoc diagnosis of unexpected failures.
package logger

import (
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultCapacity is the number of entries the ring retains.
const DefaultCapacity = 200

// Entry is one captured log record.
type Entry struct {
	// Time is when the record was written.
	Time time.Time
	// Level is the severity as text ("info", "error", ...).
	Level string
	// Message is the log message.
	Message string
	// Detail carries the attached error text, if any.
	Detail string
}

// Ring is a fixed-capacity buffer of recent log entries. Once full, the
// oldest entry is dropped for each new one.
type Ring struct {
	mu      sync.Mutex
	entries []Entry
	start   int
	count   int
}

// NewRing creates a ring holding at most capacity entries.
// A capacity below 1 is treated as DefaultCapacity.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Ring{entries: make([]Entry, capacity)}
}

// Append records one entry, evicting the oldest when full.
func (r *Ring) Append(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.count < len(r.entries) {
		r.entries[(r.start+r.count)%len(r.entries)] = e
		r.count++
		return
	}
	r.entries[r.start] = e
	r.start = (r.start + 1) % len(r.entries)
}

// Recent returns the retained entries, oldest first.
func (r *Ring) Recent() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.entries[(r.start+i)%len(r.entries)]
	}
	return out
}

// ringCore is a zapcore.Core that mirrors every enabled entry into a Ring.
type ringCore struct {
	zapcore.LevelEnabler
	ring   *Ring
	fields []zapcore.Field
}

func (c *ringCore) With(fields []zapcore.Field) zapcore.Core {
	clone := &ringCore{
		LevelEnabler: c.LevelEnabler,
		ring:         c.ring,
		fields:       make([]zapcore.Field, 0, len(c.fields)+len(fields)),
	}
	clone.fields = append(clone.fields, c.fields...)
	clone.fields = append(clone.fields, fields...)
	return clone
}

func (c *ringCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *ringCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	var detail string
	for _, f := range c.fields {
		if f.Type == zapcore.ErrorType {
			if err, ok := f.Interface.(error); ok {
				detail = err.Error()
			}
		}
	}
	for _, f := range fields {
		if f.Type == zapcore.ErrorType {
			if err, ok := f.Interface.(error); ok {
				detail = err.Error()
			}
		}
	}
	c.ring.Append(Entry{Time: ent.Time, Level: ent.Level.String(), Message: ent.Message, Detail: detail})
	return nil
}

func (c *ringCore) Sync() error { return nil }

// New builds a JSON logger at the given level, teed into a fresh ring of
// DefaultCapacity entries. An unparseable level falls back to info.
func New(level string) (*zap.Logger, *Ring) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	ring := NewRing(DefaultCapacity)
	consoleCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.Lock(os.Stdout),
		lvl,
	)
	tee := zapcore.NewTee(consoleCore, &ringCore{LevelEnabler: lvl, ring: ring})
	return zap.New(tee), ring
}
