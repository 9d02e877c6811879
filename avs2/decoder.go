/*
DESCRIPTION
  decoder.go implements the control-flow API of spec.md section 6: Open
  allocates a Manager bound to one stream's sequence parameters, Decode
  feeds it one access unit at a time and returns newly output-ready
  frames in POC order, Flush drains whatever the reorder buffer still
  holds at end of stream, and Close releases pooled resources. Grounded
  on the teacher's cmd/rv main's open/run/close lifecycle (a single long-
  lived struct wrapping a logger and a worker pool, methods named for the
  lifecycle stage rather than a generic Run), generalized here from a
  capture pipeline to a decode pipeline.
*/

package avs2dec

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ausocean/avs2dec/avs2/bits"
)

// Manager is the top-level decoder handle spec.md section 6's open/
// decode/flush/close API operates on. One Manager decodes one elementary
// stream.
type Manager struct {
	seq    *SeqParams
	cfg    Config
	log    *zap.SugaredLogger
	pool   *FramePool
	sched  *FrameScheduler

	mu      sync.Mutex
	closed  bool
	refs    [2]*Frame // most recent forward/backward reference frames
	pending []*Frame  // decoded, not yet output, ready to be sorted by POC
}

// Open allocates a Manager for a stream with the given sequence
// parameters and configuration, per spec.md section 6's "open(config) ->
// handle". cfg.validate()'s error, if any, is returned immediately
// without allocating pooled resources.
func Open(seq *SeqParams, cfg Config) (*Manager, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	m := &Manager{
		seq:  seq,
		cfg:  cfg,
		log:  newLogger(cfg.LogLevel, cfg.LogPath),
		pool: NewFramePool(seq.Width, seq.Height, seq.LCUSize(), seq.BitDepth),
	}
	m.sched = NewFrameScheduler(seq, &m.cfg, seq.BitDepth)
	return m, nil
}

// Decode parses and reconstructs one access unit (a single slice's worth
// of CTU data, already de-escaped and stripped of its start code by the
// caller per spec.md section 1's stated Non-goal), returning any frames
// now safe to output in POC order, per spec.md section 6's "decode(handle,
// packet, packet_len, pts, dts) -> status".
func (m *Manager) Decode(payload []byte, qp int, typ FrameType, poc int, deltaQPEnabled bool) ([]*Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}

	frame := m.pool.Acquire()
	frame.POC = poc
	frame.Type = typ

	widthLCU := m.seq.WidthInLCU()
	heightLCU := m.seq.HeightInLCU()
	slice := NewSlice(m.seq, qp, typ, 0, widthLCU*heightLCU, deltaQPEnabled)

	blocks := NewBlockMap((m.seq.Width+3)/4, (m.seq.Height+3)/4)
	br := bits.NewBitReader(payload)
	aec := NewAEC(br)
	refs := m.refs
	parser := NewCUParser(m.seq, slice, aec, blocks, 0, refs, poc)

	err := m.sched.DecodeSlice(frame, slice, parser, refs)
	if err != nil {
		frame.ErrorFlag = true
		m.log.Errorw("slice decode failed", "poc", poc, "error", err)
	}

	if typ != FrameB {
		m.rotateRefs(frame)
	}

	frame.acquire()
	m.pending = append(m.pending, frame)
	frame.release(m.pool)

	return m.drainReorderable(), err
}

// rotateRefs installs frame as the newest reference, evicting the older
// of the two reference slots per spec.md section 3's 2-deep reference
// model (the full multi-reference RPS management is out of this core's
// scope per spec.md section 1).
func (m *Manager) rotateRefs(frame *Frame) {
	if m.refs[0] != nil {
		m.refs[0].release(m.pool)
	}
	m.refs[0] = m.refs[1]
	frame.acquire()
	m.refs[1] = frame
}

// reorderWindow is how many pending frames Decode accumulates before it
// starts trusting POC order enough to emit, per spec.md section 6's
// "output in POC order" requirement under B-frame reordering.
const reorderWindow = 2

// drainReorderable sorts m.pending by POC and emits every frame once at
// least reorderWindow frames are waiting behind it, per spec.md section
// 6. Flush (below) empties whatever remains regardless of window size.
func (m *Manager) drainReorderable() []*Frame {
	sort.Slice(m.pending, func(i, j int) bool { return m.pending[i].POC < m.pending[j].POC })
	var out []*Frame
	for len(m.pending) > reorderWindow {
		f := m.pending[0]
		m.pending = m.pending[1:]
		f.markOutputed(m.pool)
		out = append(out, f)
	}
	return out
}

// Flush drains every frame still held in the reorder buffer, in POC
// order, per spec.md section 6's "flush(handle) -> output*". The Manager
// remains usable afterward (a new GOP may follow) until Close is called.
func (m *Manager) Flush() []*Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	sort.Slice(m.pending, func(i, j int) bool { return m.pending[i].POC < m.pending[j].POC })
	out := m.pending
	m.pending = nil
	for _, f := range out {
		f.markOutputed(m.pool)
	}
	return out
}

// Close releases the Manager's pooled frames and reference slots, per
// spec.md section 6's "close(handle)". Afterward Decode and a second Close
// return ErrClosed, and Flush returns no frames.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.closed = true
	for _, f := range m.refs {
		if f != nil {
			f.release(m.pool)
		}
	}
	m.refs = [2]*Frame{}
	for _, f := range m.pending {
		f.markOutputed(m.pool)
	}
	m.pending = nil
	return m.log.Sync()
}
