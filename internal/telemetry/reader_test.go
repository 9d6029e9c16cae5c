package telemetry

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipePort is an in-memory port whose Close unblocks a pending Read, like a
// real serial handle.
type pipePort struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func newPipePort() *pipePort {
	r, w := io.Pipe()
	return &pipePort{r: r, w: w}
}

func (p *pipePort) Read(b []byte) (int, error)         { return p.r.Read(b) }
func (p *pipePort) Close() error                       { return p.r.Close() }
func (p *pipePort) SetReadTimeout(time.Duration) error { return nil }

func (p *pipePort) send(t *testing.T, s string) {
	t.Helper()
	if _, err := p.w.Write([]byte(s)); err != nil {
		t.Fatalf("write to port: %v", err)
	}
}

type step struct {
	data string
	err  error
}

// scriptedPort replays canned reads, then blocks until closed.
type scriptedPort struct {
	steps  chan step
	closed chan struct{}
	once   sync.Once
}

func newScriptedPort(steps ...step) *scriptedPort {
	p := &scriptedPort{steps: make(chan step, len(steps)), closed: make(chan struct{})}
	for _, s := range steps {
		p.steps <- s
	}
	return p
}

func (p *scriptedPort) Read(b []byte) (int, error) {
	select {
	case s := <-p.steps:
		return copy(b, s.data), s.err
	case <-p.closed:
		return 0, io.ErrClosedPipe
	}
}

func (p *scriptedPort) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

func (p *scriptedPort) SetReadTimeout(time.Duration) error { return nil }

// gatedPort holds its first Read until released, then returns data even if
// the port was closed meanwhile, like a read already in flight in the driver.
type gatedPort struct {
	entered chan struct{}
	release chan struct{}
	data    string
	once    sync.Once
	closed  chan struct{}
	cOnce   sync.Once
}

func newGatedPort(data string) *gatedPort {
	return &gatedPort{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		data:    data,
		closed:  make(chan struct{}),
	}
}

func (p *gatedPort) Read(b []byte) (int, error) {
	first := false
	p.once.Do(func() { first = true })
	if first {
		close(p.entered)
		<-p.release
		return copy(b, p.data), nil
	}
	<-p.closed
	return 0, io.ErrClosedPipe
}

func (p *gatedPort) Close() error {
	p.cOnce.Do(func() { close(p.closed) })
	return nil
}

func (p *gatedPort) SetReadTimeout(time.Duration) error { return nil }

type fakeStatus struct {
	mu         sync.Mutex
	opened     []SessionInfo
	closed     []error
	admitted   int
	filtered   int
	rejected   int
	readErrors []error
}

func (f *fakeStatus) SessionOpened(info SessionInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = append(f.opened, info)
}

func (f *fakeStatus) SessionClosed(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, err)
}

func (f *fakeStatus) LineParsed(admitted bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if admitted {
		f.admitted++
	} else {
		f.filtered++
	}
}

func (f *fakeStatus) LineRejected() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejected++
}

func (f *fakeStatus) ReadFailed(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readErrors = append(f.readErrors, err)
}

func (f *fakeStatus) closedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.closed)
}

func openerFor(ports ...Port) (Opener, *[]string) {
	var calls []string
	var mu sync.Mutex
	return func(name string, baud int) (Port, error) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, name)
		if len(ports) == 0 {
			return nil, errors.New("no such file or directory")
		}
		p := ports[0]
		ports = ports[1:]
		return p, nil
	}, &calls
}

func newTestReader(t *testing.T, open Opener, q *Queue, th *Threshold, status StatusSink) *Reader {
	t.Helper()
	r, err := NewReader(ReaderOptions{
		Open:      open,
		Queue:     q,
		Threshold: th,
		Status:    status,
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestNewReader_RequiresQueue(t *testing.T) {
	_, err := NewReader(ReaderOptions{})
	assert.Error(t, err)
}

func TestReader_OpenFailureIsPortUnavailable(t *testing.T) {
	open, _ := openerFor()
	status := &fakeStatus{}
	r := newTestReader(t, open, &Queue{}, nil, status)

	err := r.Open("/dev/ttyMissing", 9600)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPortUnavailable)
	assert.Contains(t, err.Error(), "/dev/ttyMissing")
	assert.False(t, r.IsOpen())
	assert.Empty(t, status.opened)
}

func TestReader_ReadsFiltersAndEnqueues(t *testing.T) {
	port := newPipePort()
	open, _ := openerFor(port)
	q := &Queue{}
	th := NewThreshold(Warn)
	status := &fakeStatus{}
	r := newTestReader(t, open, q, th, status)

	require.NoError(t, r.Open("/dev/ttyUSB0", 115200))
	require.True(t, r.IsOpen())

	port.send(t, "DEBUG,x\nnoise\nWARN,temp,")
	port.send(t, "81\nFATAL,boom\n")

	require.Eventually(t, func() bool { return q.Len() == 2 }, 2*time.Second, 5*time.Millisecond)

	first, _ := q.Pop()
	assert.Equal(t, Warn, first.Level)
	assert.Equal(t, []string{"temp", "81"}, first.Fields())
	second, _ := q.Pop()
	assert.Equal(t, Fatal, second.Level)

	status.mu.Lock()
	assert.Equal(t, 2, status.admitted)
	assert.Equal(t, 1, status.filtered)
	assert.Equal(t, 1, status.rejected)
	require.Len(t, status.opened, 1)
	assert.Equal(t, "/dev/ttyUSB0", status.opened[0].Port)
	assert.Equal(t, 115200, status.opened[0].Baud)
	status.mu.Unlock()
}

func TestReader_ThresholdChangeAffectsLaterLinesOnly(t *testing.T) {
	port := newPipePort()
	open, _ := openerFor(port)
	q := &Queue{}
	th := NewThreshold(Debug)
	r := newTestReader(t, open, q, th, nil)
	require.NoError(t, r.Open("p", 9600))

	port.send(t, "DEBUG,early\n")
	require.Eventually(t, func() bool { return q.Len() == 1 }, 2*time.Second, 5*time.Millisecond)

	th.Set(Error)
	port.send(t, "DEBUG,late\nERROR,kept\n")
	require.Eventually(t, func() bool { return q.Len() == 2 }, 2*time.Second, 5*time.Millisecond)

	a, _ := q.Pop()
	b, _ := q.Pop()
	assert.Equal(t, "early", a.Field(0), "already queued records are never re-filtered")
	assert.Equal(t, "kept", b.Field(0))
}

func TestReader_OpenWhileOpenIsNoop(t *testing.T) {
	port := newPipePort()
	open, calls := openerFor(port)
	r := newTestReader(t, open, &Queue{}, nil, nil)

	require.NoError(t, r.Open("a", 9600))
	info, ok := r.Session()
	require.True(t, ok)

	require.NoError(t, r.Open("b", 19200))
	again, _ := r.Session()
	assert.Equal(t, info.ID, again.ID)
	assert.Equal(t, []string{"a"}, *calls)
}

func TestReader_CloseIsIdempotentAndUnblocksRead(t *testing.T) {
	port := newPipePort()
	open, _ := openerFor(port)
	status := &fakeStatus{}
	r := newTestReader(t, open, &Queue{}, nil, status)

	require.NoError(t, r.Close(), "closing a closed reader")
	require.NoError(t, r.Open("p", 9600))

	done := make(chan error, 1)
	go func() { done <- r.Close() }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked on an in-flight read")
	}

	assert.False(t, r.IsOpen())
	require.NoError(t, r.Close())
	assert.Equal(t, 1, status.closedCount())
	assert.NoError(t, status.closed[0])
}

func TestReader_ReopenClearsPendingRecords(t *testing.T) {
	first, second := newPipePort(), newPipePort()
	open, _ := openerFor(first, second)
	q := &Queue{}
	r := newTestReader(t, open, q, nil, nil)

	require.NoError(t, r.Open("p", 9600))
	first.send(t, "INFO,stale,1\nINFO,stale,2\n")
	require.Eventually(t, func() bool { return q.Len() == 2 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, r.Close())
	assert.Equal(t, 2, q.Len(), "close keeps undrained records")

	require.NoError(t, r.Open("p", 9600))
	assert.Equal(t, 0, q.Len(), "reopen discards stale records")

	second.send(t, "INFO,fresh\n")
	require.Eventually(t, func() bool { return q.Len() == 1 }, 2*time.Second, 5*time.Millisecond)
	got, _ := q.Pop()
	assert.Equal(t, "fresh", got.Field(0))
}

func TestReader_OpenDuringCloseDropsInFlightRecords(t *testing.T) {
	old := newGatedPort("ERROR,stale from A\n")
	next := newPipePort()
	open, _ := openerFor(old, next)
	q := &Queue{}
	r := newTestReader(t, open, q, NewThreshold(Info), nil)

	require.NoError(t, r.Open("A", 9600))
	<-old.entered

	closed := make(chan error, 1)
	go func() { closed <- r.Close() }()
	require.Eventually(t, func() bool { return !r.IsOpen() }, 2*time.Second, time.Millisecond)

	opened := make(chan error, 1)
	go func() { opened <- r.Open("B", 9600) }()
	assert.Never(t, func() bool { return len(opened) > 0 }, 50*time.Millisecond, 5*time.Millisecond,
		"open must wait for the closing session")

	close(old.release)
	require.NoError(t, <-closed)
	require.NoError(t, <-opened)

	assert.True(t, r.IsOpen())
	info, ok := r.Session()
	require.True(t, ok)
	assert.Equal(t, "B", info.Port)
	assert.Equal(t, 0, q.Len(), "records read by the old session must not reach the new one")

	next.send(t, "INFO,fresh\n")
	require.Eventually(t, func() bool { return q.Len() == 1 }, 2*time.Second, 5*time.Millisecond)
	got, _ := q.Pop()
	assert.Equal(t, "fresh", got.Field(0))
}

func TestReader_TransientErrorKeepsReading(t *testing.T) {
	glitch := errors.New("framing error")
	port := newScriptedPort(
		step{data: "INFO,a\n"},
		step{err: glitch},
		step{}, // read timeout: no data, no error
		step{data: "INFO,b\n"},
	)
	open, _ := openerFor(port)
	q := &Queue{}
	status := &fakeStatus{}
	r := newTestReader(t, open, q, nil, status)
	require.NoError(t, r.Open("p", 9600))

	require.Eventually(t, func() bool { return q.Len() == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.True(t, r.IsOpen())

	status.mu.Lock()
	require.Len(t, status.readErrors, 1)
	assert.ErrorIs(t, status.readErrors[0], glitch)
	status.mu.Unlock()
}

func TestReader_DisconnectEndsSession(t *testing.T) {
	port := newPipePort()
	open, _ := openerFor(port)
	q := &Queue{}
	status := &fakeStatus{}
	r := newTestReader(t, open, q, nil, status)
	require.NoError(t, r.Open("p", 9600))

	port.send(t, "INFO,last\n")
	require.NoError(t, port.w.Close()) // device gone: reads now hit EOF

	require.Eventually(t, func() bool { return !r.IsOpen() }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return status.closedCount() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, status.closed[0], io.EOF)
	assert.Equal(t, 1, q.Len(), "records read before the disconnect survive")
	assert.NoError(t, r.Close())
}
