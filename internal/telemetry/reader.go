package telemetry

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrPortUnavailable is returned by Open when the device cannot be acquired.
var ErrPortUnavailable = errors.New("serial port unavailable")

const (
	defaultReadTimeout = 100 * time.Millisecond
	readChunkSize      = 4096
	// maxPendingLine bounds a line that never sees a newline (binary noise).
	maxPendingLine = 64 * 1024
)

// SessionInfo describes an open session. It is immutable for the session's
// lifetime.
type SessionInfo struct {
	ID       uuid.UUID
	Port     string
	Baud     int
	OpenedAt time.Time
}

// StatusSink receives session lifecycle events and counters from the reader.
type StatusSink interface {
	SessionOpened(info SessionInfo)
	SessionClosed(err error)
	LineParsed(admitted bool)
	LineRejected()
	ReadFailed(err error)
}

// ReaderOptions configure a Reader.
type ReaderOptions struct {
	Open        Opener        // defaults to OpenSerial
	Queue       *Queue        // required
	Threshold   *Threshold    // defaults to Debug
	Status      StatusSink    // optional
	Logger      zerolog.Logger
	ReadTimeout time.Duration // bounded wait per read; defaults to 100ms
	Now         func() time.Time
}

// Reader owns the serial session and the background loop that feeds the queue.
type Reader struct {
	open        Opener
	queue       *Queue
	threshold   *Threshold
	status      StatusSink
	logger      zerolog.Logger
	readTimeout time.Duration
	now         func() time.Time

	mu      sync.Mutex
	session *session
}

type session struct {
	info SessionInfo
	port Port
	stop chan struct{}
	done chan struct{}
	// closed is closed by Close once teardown has been reported.
	closed chan struct{}
	once   sync.Once
}

// signalStop is safe to call from both Close and the loop itself.
func (s *session) signalStop() {
	s.once.Do(func() { close(s.stop) })
}

func (s *session) stopping() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

// NewReader builds a closed reader.
func NewReader(opts ReaderOptions) (*Reader, error) {
	if opts.Queue == nil {
		return nil, errors.New("reader requires a queue")
	}
	if opts.Open == nil {
		opts.Open = OpenSerial
	}
	if opts.Threshold == nil {
		opts.Threshold = NewThreshold(Debug)
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = defaultReadTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Reader{
		open:        opts.Open,
		queue:       opts.Queue,
		threshold:   opts.Threshold,
		status:      opts.Status,
		logger:      opts.Logger,
		readTimeout: opts.ReadTimeout,
		now:         opts.Now,
	}, nil
}

// Open starts a session on the named port. It is a no-op when a session is
// already open, and waits for a session that is still closing. Failures wrap
// ErrPortUnavailable and leave the reader closed.
func (r *Reader) Open(name string, baud int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for r.session != nil {
		prev := r.session
		if !prev.stopping() {
			return nil
		}
		r.mu.Unlock()
		<-prev.closed
		r.mu.Lock()
	}

	port, err := r.open(name, baud)
	if err != nil {
		return fmt.Errorf("open %q: %w: %w", name, ErrPortUnavailable, err)
	}
	if err := port.SetReadTimeout(r.readTimeout); err != nil {
		_ = port.Close()
		return fmt.Errorf("configure %q: %w: %w", name, ErrPortUnavailable, err)
	}

	dropped := r.queue.Clear()
	s := &session{
		info: SessionInfo{
			ID:       uuid.New(),
			Port:     name,
			Baud:     baud,
			OpenedAt: r.now(),
		},
		port: port,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		closed: make(chan struct{}),
	}
	r.session = s

	r.logger.Info().
		Str("session", s.info.ID.String()).
		Str("port", name).
		Int("baud", baud).
		Int("discarded", dropped).
		Msg("serial session opened")
	if r.status != nil {
		r.status.SessionOpened(s.info)
	}

	go r.loop(s)
	return nil
}

// Close ends the current session and returns once its loop has exited.
// Closing a closed reader is a no-op.
func (r *Reader) Close() error {
	r.mu.Lock()
	s := r.session
	if s == nil || s.stopping() {
		r.mu.Unlock()
		if s != nil {
			<-s.closed
		}
		return nil
	}
	// The session stays registered until the loop is gone so Open cannot
	// start a new one underneath it.
	s.signalStop()
	r.mu.Unlock()

	err := s.port.Close()
	<-s.done

	r.logger.Info().Str("session", s.info.ID.String()).Msg("serial session closed")
	if r.status != nil {
		r.status.SessionClosed(nil)
	}

	r.mu.Lock()
	r.session = nil
	r.mu.Unlock()
	close(s.closed)

	if err != nil {
		return fmt.Errorf("close %q: %w", s.info.Port, err)
	}
	return nil
}

// IsOpen reports whether a session is active. A session being closed is not.
func (r *Reader) IsOpen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session != nil && !r.session.stopping()
}

// Session returns the active session description.
func (r *Reader) Session() (SessionInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil || r.session.stopping() {
		return SessionInfo{}, false
	}
	return r.session.info, true
}

// loop reads until the session is stopped or the device goes away.
func (r *Reader) loop(s *session) {
	defer close(s.done)

	log := r.logger.With().Str("session", s.info.ID.String()).Logger()
	buf := make([]byte, readChunkSize)
	var pending []byte

	for !s.stopping() {
		n, err := s.port.Read(buf)
		if n > 0 {
			pending = r.consume(s, append(pending, buf[:n]...), &log)
		}
		if err == nil {
			continue
		}
		if s.stopping() || isClosedError(err) {
			return
		}
		if isDisconnectError(err) {
			log.Error().Err(err).Msg("serial device disconnected")
			r.abandon(s, err)
			return
		}
		log.Warn().Err(err).Msg("serial read failed")
		if r.status != nil {
			r.status.ReadFailed(err)
		}
	}
}

// consume parses every complete line in buf and returns the unterminated tail.
// Nothing is queued once the session is stopping.
func (r *Reader) consume(s *session, buf []byte, log *zerolog.Logger) []byte {
	for {
		if s.stopping() {
			return nil
		}
		idx := bytes.IndexByte(buf, '\n')
		if idx < 0 {
			break
		}
		r.handleLine(buf[:idx+1])
		buf = buf[idx+1:]
	}
	if len(buf) > maxPendingLine {
		log.Warn().Int("bytes", len(buf)).Msg("discarding unterminated line")
		return nil
	}
	// Keep the tail in a fresh slice so the consumed prefix can be collected.
	return append([]byte(nil), buf...)
}

func (r *Reader) handleLine(line []byte) {
	rec, ok := ParseLine(line, r.now())
	if !ok {
		if r.status != nil {
			r.status.LineRejected()
		}
		return
	}
	admitted := Admit(rec.Level, r.threshold.Load())
	if admitted {
		r.queue.Push(rec)
	}
	if r.status != nil {
		r.status.LineParsed(admitted)
	}
}

// abandon tears down a session whose device failed. Once Close has signalled
// the stop it owns the teardown.
func (r *Reader) abandon(s *session, cause error) {
	r.mu.Lock()
	owned := r.session == s && !s.stopping()
	if owned {
		r.session = nil
	}
	r.mu.Unlock()
	if !owned {
		return
	}
	s.signalStop()
	_ = s.port.Close()
	if r.status != nil {
		r.status.SessionClosed(cause)
	}
}
