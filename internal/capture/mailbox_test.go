package capture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func testFrame(t *testing.T, value float64) gocv.Mat {
	t.Helper()
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(value, value, value, 0), 4, 4, gocv.MatTypeCV8UC3)
}

func TestMailboxLatestReturnsPublishedFrame(t *testing.T) {
	m := NewMailbox()
	frame := testFrame(t, 17)
	defer frame.Close()

	m.publish(frame)

	got, ok := m.Latest()
	require.True(t, ok)
	defer got.Close()
	assert.Equal(t, 4, got.Rows())
	assert.InDelta(t, 17, got.Mean().Val1, 0.01)
}

func TestMailboxOverwriteCountsDrop(t *testing.T) {
	m := NewMailbox()
	first := testFrame(t, 1)
	defer first.Close()
	second := testFrame(t, 2)
	defer second.Close()

	m.publish(first)
	m.publish(second)

	got, ok := m.Latest()
	require.True(t, ok)
	defer got.Close()
	assert.InDelta(t, 2, got.Mean().Val1, 0.01, "latest frame wins")

	stats := m.Stats()
	assert.Equal(t, uint64(2), stats.Published)
	assert.Equal(t, uint64(1), stats.Drops)
}

func TestMailboxCloseUnblocksConsumer(t *testing.T) {
	m := NewMailbox()

	done := make(chan bool, 1)
	go func() {
		_, ok := m.Latest()
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	m.CloseInbox()

	select {
	case ok := <-done:
		assert.False(t, ok, "closed mailbox signals end of stream")
	case <-time.After(time.Second):
		t.Fatal("Latest did not unblock on close")
	}
}

// endlessReader never reports end-of-stream on its own.
type endlessReader struct {
	reads int
}

func (r *endlessReader) Read(dst *gocv.Mat) bool {
	r.reads++
	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(5, 5, 5, 0), 4, 4, gocv.MatTypeCV8UC3)
	defer frame.Close()
	frame.CopyTo(dst)
	return true
}

func TestMailboxStopHaltsProducer(t *testing.T) {
	m := NewMailbox()
	src := &endlessReader{}
	m.Start(src)

	frame, ok := m.Latest()
	require.True(t, ok)
	frame.Close()

	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not terminate the producer")
	}

	// Safe to read after Stop: the producer goroutine has exited. The source
	// must not be touched again, so the device can be released now.
	reads := src.reads
	for {
		f, ok := m.Latest()
		if !ok {
			break
		}
		f.Close()
	}
	assert.Equal(t, reads, src.reads, "no reads after Stop returned")
}

// scriptedReader yields a fixed number of frames, then reports end-of-stream.
type scriptedReader struct {
	remaining int
}

func (r *scriptedReader) Read(dst *gocv.Mat) bool {
	if r.remaining == 0 {
		return false
	}
	r.remaining--
	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(9, 9, 9, 0), 4, 4, gocv.MatTypeCV8UC3)
	defer frame.Close()
	frame.CopyTo(dst)
	return true
}

func TestMailboxProducerEndOfStream(t *testing.T) {
	m := NewMailbox()
	m.Start(&scriptedReader{remaining: 3})
	m.Wait()

	// Whatever survived overwriting drains, then end-of-stream.
	for {
		frame, ok := m.Latest()
		if !ok {
			break
		}
		frame.Close()
	}

	stats := m.Stats()
	assert.Equal(t, uint64(3), stats.Published)
}
