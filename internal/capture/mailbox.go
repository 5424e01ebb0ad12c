package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// Mailbox is a single-slot frame buffer with overwrite semantics: the
// producer never blocks, an unconsumed frame is replaced by a newer one and
// counted as a drop. This decouples the camera rate from the achievable
// processing rate: drop frames, never queue.
type Mailbox struct {
	mu   sync.Mutex
	cond *sync.Cond

	frame    gocv.Mat
	occupied bool
	closed   bool

	published uint64
	drops     uint64

	wg sync.WaitGroup
}

// MailboxStats is a snapshot of mailbox counters.
type MailboxStats struct {
	Published uint64
	Drops     uint64
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	m := &Mailbox{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Start spawns the producer goroutine feeding frames from src. The producer
// exits when src reports end-of-stream or the mailbox is closed, whichever
// comes first.
func (m *Mailbox) Start(src Reader) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		buf := gocv.NewMat()
		defer buf.Close()
		for !m.isClosed() {
			if ok := src.Read(&buf); !ok {
				m.CloseInbox()
				return
			}
			m.publish(buf)
		}
	}()
}

func (m *Mailbox) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// publish stores a copy of frame in the slot, overwriting any unconsumed
// frame. Non-blocking for the producer.
func (m *Mailbox) publish(frame gocv.Mat) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	if m.occupied {
		m.frame.Close()
		m.drops++
	}
	m.frame = frame.Clone()
	m.occupied = true
	m.published++
	m.cond.Signal()
}

// Latest blocks until a frame is available and returns it, transferring
// ownership to the caller. The second return is false once the mailbox is
// closed and drained, signalling end of stream.
func (m *Mailbox) Latest() (gocv.Mat, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for !m.occupied && !m.closed {
		m.cond.Wait()
	}
	if !m.occupied {
		return gocv.Mat{}, false
	}
	frame := m.frame
	m.occupied = false
	return frame, true
}

// CloseInbox marks the stream finished and wakes any blocked consumer.
// Idempotent.
func (m *Mailbox) CloseInbox() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.cond.Broadcast()
}

// Wait blocks until the producer goroutine has exited.
func (m *Mailbox) Wait() {
	m.wg.Wait()
}

// Stop closes the mailbox and waits for the producer goroutine to exit. The
// source must stay valid until Stop returns; release it only afterwards.
func (m *Mailbox) Stop() {
	m.CloseInbox()
	m.wg.Wait()
}

// Stats returns a snapshot of the publish/drop counters.
func (m *Mailbox) Stats() MailboxStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MailboxStats{Published: m.published, Drops: m.drops}
}
