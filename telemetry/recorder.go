// Package telemetry samples tracked bodies every tick for plotting, and
// fingerprints the samples so two runs can be checked for determinism.
package telemetry

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// Sample is one body's motion on one tick, in the plot's four channels.
type Sample struct {
	Label  string  `json:"label"`
	Entity uint64  `json:"entity"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VelX   float64 `json:"vel_x"`
	VelY   float64 `json:"vel_y"`
}

// Frame groups the samples of one tick.
type Frame struct {
	Session string   `json:"session"`
	Tick    uint64   `json:"tick"`
	Samples []Sample `json:"samples"`
	// Digest fingerprints this frame's samples.
	Digest uint64 `json:"digest"`
}

// Publisher receives every flushed frame.
type Publisher interface {
	Publish(Frame)
}

// Recorder buffers samples for the current tick.
type Recorder struct {
	mu      sync.Mutex
	session uuid.UUID
	pending []Sample
	running *xxhash.Digest
	last    Frame
	frames  uint64
	pub     Publisher
}

// NewRecorder starts a new session. pub may be nil.
func NewRecorder(pub Publisher) *Recorder {
	return &Recorder{
		session: uuid.New(),
		running: xxhash.New(),
		pub:     pub,
	}
}

func (r *Recorder) Session() string {
	return r.session.String()
}

// Record buffers s for the current tick.
func (r *Recorder) Record(s Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, s)
}

// Flush closes the tick, folds it into the session digest, and publishes it.
func (r *Recorder) Flush(tick uint64) Frame {
	r.mu.Lock()
	frame := Frame{
		Session: r.session.String(),
		Tick:    tick,
		Samples: r.pending,
	}
	r.pending = nil

	buf := encodeFrame(tick, frame.Samples)
	frame.Digest = xxhash.Sum64(buf)
	_, _ = r.running.Write(buf)
	r.last = frame
	r.frames++
	pub := r.pub
	r.mu.Unlock()

	if pub != nil {
		pub.Publish(frame)
	}
	return frame
}

// Digest fingerprints every frame flushed so far. Runs fed the same samples
// in the same order share a digest regardless of session.
func (r *Recorder) Digest() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running.Sum64()
}

// Last returns the most recently flushed frame.
func (r *Recorder) Last() (Frame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.frames > 0
}

func encodeFrame(tick uint64, samples []Sample) []byte {
	buf := make([]byte, 0, 8+len(samples)*48)
	buf = binary.LittleEndian.AppendUint64(buf, tick)
	for _, s := range samples {
		buf = append(buf, s.Label...)
		buf = append(buf, 0)
		buf = binary.LittleEndian.AppendUint64(buf, s.Entity)
		for _, v := range [...]float64{s.X, s.Y, s.VelX, s.VelY} {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
		}
	}
	return buf
}
