package chat

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"chat-room-client/internal/dto"
)

// Snapshot is the rendered state of a room at one point in time. The
// external front-end draws whatever the latest snapshot holds.
type Snapshot struct {
	Messages      []Message
	PresenceCount int
	State         ConnectionState
	HistoryErr    error
}

// SessionOptions tunes a session. Zero values use the defaults below.
type SessionOptions struct {
	// AckTimeout bounds how long an optimistic entry may stay pending
	// before it is flagged delivery-uncertain.
	AckTimeout time.Duration

	// Now is the clock; tests override it.
	Now func() time.Time
}

const defaultAckTimeout = 10 * time.Second

type sendRequest struct {
	text  string
	reply chan error
}

type historyResult struct {
	messages []Message
	err      error
}

// Session orchestrates the history loader, the channel connection, the
// presence tracker and the reconciler for a single room instance. All
// state mutation happens on one event loop; snapshot getters are safe
// from any goroutine. A session is exclusively owned by one caller and
// must be closed when the caller leaves the room.
type Session struct {
	roomID  string
	user    User
	history HistoryFetcher
	channel EventChannel
	opts    SessionOptions

	rec  *Reconciler
	pres *PresenceTracker

	sendCh    chan sendRequest
	historyCh chan historyResult
	retryCh   chan struct{}

	ctx       context.Context
	cancel    context.CancelFunc
	started   bool
	closeOnce sync.Once

	mu         sync.RWMutex
	messages   []Message
	presence   int
	connState  ConnectionState
	historyErr error
	notify     func(Snapshot)
}

// NewSession validates the room id and local identity before anything is
// dialed. A missing identity is fatal to entering the room; the caller
// must route to its identity-acquisition flow instead.
func NewSession(roomID string, user User, history HistoryFetcher, channel EventChannel, opts SessionOptions) (*Session, error) {
	if roomID == "" || user.ID == "" {
		return nil, newError(ErrorCodeNotAuthenticated, "room id and local user are required", nil)
	}
	if history == nil || channel == nil {
		return nil, newError(ErrorCodeValidation, "history fetcher and channel are required", nil)
	}
	if opts.AckTimeout <= 0 {
		opts.AckTimeout = defaultAckTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Session{
		roomID:    roomID,
		user:      user,
		history:   history,
		channel:   channel,
		opts:      opts,
		rec:       NewReconciler(user),
		pres:      NewPresenceTracker(),
		sendCh:    make(chan sendRequest),
		historyCh: make(chan historyResult, 1),
		retryCh:   make(chan struct{}, 1),
		connState: StateIdle,
	}, nil
}

// Start opens the channel and launches the history fetch concurrently;
// neither blocks the other. Events begin flowing before, during, or after
// the history snapshot lands and the reconciler tolerates every ordering.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return newError(ErrorCodeValidation, "session already started", nil)
	}
	s.started = true
	s.mu.Unlock()

	s.ctx, s.cancel = context.WithCancel(ctx)

	if err := s.channel.Open(s.ctx); err != nil {
		return newError(ErrorCodeConnectionFailed, "channel open failed", err)
	}

	go s.fetchHistory()
	go s.run()
	return nil
}

// Send appends an optimistic entry and then transmits the message, in
// that order: the sender's own echo never waits on the network. The
// returned error is ErrorCodeSendUncertain when the transmit failed after
// the entry was already rendered.
func (s *Session) Send(text string) error {
	if strings.TrimSpace(text) == "" {
		return newError(ErrorCodeValidation, "message text is empty", nil)
	}
	if s.ctx == nil {
		return newError(ErrorCodeValidation, "session not started", nil)
	}

	req := sendRequest{text: text, reply: make(chan error, 1)}
	select {
	case s.sendCh <- req:
	case <-s.ctx.Done():
		return newError(ErrorCodeDisconnected, "session closed", s.ctx.Err())
	}
	select {
	case err := <-req.reply:
		return err
	case <-s.ctx.Done():
		return newError(ErrorCodeDisconnected, "session closed", s.ctx.Err())
	}
}

// RetryHistory schedules another history fetch after a failure. No-op
// when a retry is already queued.
func (s *Session) RetryHistory() {
	select {
	case s.retryCh <- struct{}{}:
	default:
	}
}

// SetNotify installs the hook invoked after every state change. One hook
// is active at a time; installing replaces, never stacks.
func (s *Session) SetNotify(fn func(Snapshot)) {
	s.mu.Lock()
	s.notify = fn
	s.mu.Unlock()
}

// Messages returns the current merged, duplicate-free list in append order.
func (s *Session) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// PresenceCount returns the latest server-reported participant count.
func (s *Session) PresenceCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.presence
}

// State returns the channel connection state.
func (s *Session) State() ConnectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connState
}

// HistoryErr reports the last history fetch failure, nil once a fetch
// succeeded or none has finished yet.
func (s *Session) HistoryErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.historyErr
}

// Close tears the session down: the event loop stops, a late history
// result is discarded, and the channel is closed unconditionally. Safe to
// call any number of times.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		s.channel.Close()
		s.mu.Lock()
		s.connState = StateIdle
		s.mu.Unlock()
	})
	return nil
}

func (s *Session) fetchHistory() {
	messages, err := s.history.FetchHistory(s.ctx, s.roomID)
	select {
	case s.historyCh <- historyResult{messages: messages, err: err}:
	case <-s.ctx.Done():
		// Late result; the caller no longer holds this room.
	}
}

// run is the single consumer of every input: channel events, connection
// state changes, the history result, send requests, and the ack sweep.
func (s *Session) run() {
	sweep := time.NewTicker(s.opts.AckTimeout)
	defer sweep.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return

		case ev := <-s.channel.Events():
			s.handleEvent(ev)

		case sc := <-s.channel.States():
			s.mu.Lock()
			s.connState = sc.State
			s.mu.Unlock()
			if sc.Err != nil {
				log.Printf("session %s: channel state %s: %v", s.roomID, sc.State, sc.Err)
			}
			s.publish()

		case res := <-s.historyCh:
			if res.err != nil {
				log.Printf("session %s: history fetch failed: %v", s.roomID, res.err)
				s.mu.Lock()
				s.historyErr = res.err
				s.mu.Unlock()
			} else {
				s.rec.Seed(res.messages)
				s.mu.Lock()
				s.historyErr = nil
				s.mu.Unlock()
			}
			s.publish()

		case req := <-s.sendCh:
			req.reply <- s.handleSend(req.text)

		case <-s.retryCh:
			go s.fetchHistory()

		case <-sweep.C:
			if s.rec.ExpirePending(s.opts.Now().Add(-s.opts.AckTimeout)) > 0 {
				s.publish()
			}
		}
	}
}

func (s *Session) handleEvent(ev dto.Event) {
	incEventsApplied(ev.Type)

	switch ev.Type {
	case dto.EventNewMessage:
		if s.rec.ApplyServerEvent(ev) {
			s.publish()
		}
	case dto.EventUserCountUpdate:
		if s.pres.Apply(ev) {
			s.publish()
		}
	case dto.EventUserJoined, dto.EventUserLeft:
		// Informational only; the count waits for the next snapshot.
		s.publish()
	default:
		// Unknown types are ignored, not fatal.
	}
}

func (s *Session) handleSend(text string) error {
	m := s.rec.AppendOptimistic(text, s.opts.Now())
	s.publish()

	err := s.channel.Send(dto.Event{
		Type:      dto.EventSendMessage,
		RoomID:    s.roomID,
		UserID:    s.user.ID,
		Text:      text,
		ClientTag: m.ClientTag,
	})
	if err != nil {
		s.rec.MarkUncertain(m.ClientTag)
		s.publish()
		return err
	}
	incMessagesSent()
	return nil
}

// publish refreshes the shared snapshot and fires the notify hook.
func (s *Session) publish() {
	s.mu.Lock()
	s.messages = s.rec.Messages()
	s.presence = s.pres.Count()
	snap := Snapshot{
		Messages:      s.messages,
		PresenceCount: s.presence,
		State:         s.connState,
		HistoryErr:    s.historyErr,
	}
	fn := s.notify
	s.mu.Unlock()

	if fn != nil {
		fn(snap)
	}
}
