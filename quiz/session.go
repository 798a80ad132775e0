package quiz

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/korjavin/quizpollbot/models"
	"github.com/looplab/fsm"
)

// Session lifecycle states
const (
	StateNotStarted = "not_started"
	StatePending    = "pending"
	StateFinished   = "finished"
)

const (
	eventStart  = "start"
	eventFinish = "finish"
)

// Errors returned while matching poll answers to sessions
var (
	ErrUnknownPoll   = errors.New("unknown poll")
	ErrStalePoll     = errors.New("poll does not match the current question")
	ErrNotInProgress = errors.New("quiz is not in progress")
)

// Session is the quiz progression of a single chat.
//
// Callers must hold the session lock (Lock/Unlock) around any sequence of
// calls that reads and then advances the progression.
type Session struct {
	ID     uuid.UUID
	ChatID int64

	mu        sync.Mutex
	machine   *fsm.FSM
	questions []models.Question
	index     int
	answers   []models.Answer
}

// NewSession creates a session that has not been started yet
func NewSession(chatID int64, questions []models.Question) *Session {
	return &Session{
		ID:        uuid.New(),
		ChatID:    chatID,
		questions: questions,
		machine: fsm.NewFSM(
			StateNotStarted,
			fsm.Events{
				{Name: eventStart, Src: []string{StateNotStarted}, Dst: StatePending},
				{Name: eventFinish, Src: []string{StatePending}, Dst: StateFinished},
			},
			fsm.Callbacks{},
		),
	}
}

// Lock serializes handling for the session's chat
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session
func (s *Session) Unlock() { s.mu.Unlock() }

// Start moves a fresh session to the first question. Starting a session that
// is already running or finished changes nothing.
func (s *Session) Start(ctx context.Context) error {
	if !s.machine.Can(eventStart) {
		return nil
	}
	if err := s.machine.Event(ctx, eventStart); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	if len(s.questions) == 0 {
		return s.finish(ctx)
	}
	return nil
}

// Current returns the question waiting for an answer and its position.
// ok is false once every question has been answered.
func (s *Session) Current() (q models.Question, index int, ok bool) {
	if s.index >= len(s.questions) {
		return models.Question{}, s.index, false
	}
	return s.questions[s.index], s.index, true
}

// Expect reports whether an answer for the question at position index
// would be accepted right now.
func (s *Session) Expect(index int) error {
	if s.machine.Current() != StatePending {
		return ErrNotInProgress
	}
	if index != s.index {
		return fmt.Errorf("%w: got %d, want %d", ErrStalePoll, index, s.index)
	}
	return nil
}

// Record stores the answer for the question at position index and advances
// to the next one. The session finishes after the last question.
func (s *Session) Record(ctx context.Context, index int, answer string) (models.Answer, error) {
	if err := s.Expect(index); err != nil {
		return models.Answer{}, err
	}

	a := models.Answer{Question: s.questions[s.index].Text, Answer: answer}
	s.answers = append(s.answers, a)
	s.index++

	if s.index == len(s.questions) {
		if err := s.finish(ctx); err != nil {
			return a, err
		}
	}
	return a, nil
}

func (s *Session) finish(ctx context.Context) error {
	if err := s.machine.Event(ctx, eventFinish); err != nil {
		return fmt.Errorf("failed to finish session: %w", err)
	}
	return nil
}

// State returns the lifecycle state name
func (s *Session) State() string { return s.machine.Current() }

// Finished reports whether every question has been answered
func (s *Session) Finished() bool { return s.machine.Is(StateFinished) }

// Index is the position of the next unanswered question
func (s *Session) Index() int { return s.index }

// Answers returns a copy of the recorded answers in order
func (s *Session) Answers() []models.Answer {
	out := make([]models.Answer, len(s.answers))
	copy(out, s.answers)
	return out
}

// DefaultSessionLimit is the session table size used when none is given
const DefaultSessionLimit = 10000

// Sessions keeps one session per chat. It holds at most limit sessions;
// finished ones are dropped first, then the oldest.
type Sessions struct {
	mu        sync.RWMutex
	questions []models.Question
	limit     int
	byChat    map[int64]*Session
	order     []int64
}

// NewSessions creates an empty session table serving questions
func NewSessions(questions []models.Question, limit int) *Sessions {
	if limit <= 0 {
		limit = DefaultSessionLimit
	}
	return &Sessions{
		questions: questions,
		limit:     limit,
		byChat:    make(map[int64]*Session),
	}
}

// Get returns the session for chatID, creating it on first use
func (ss *Sessions) Get(chatID int64) *Session {
	ss.mu.RLock()
	s, ok := ss.byChat[chatID]
	ss.mu.RUnlock()
	if ok {
		return s
	}

	ss.mu.Lock()
	defer ss.mu.Unlock()
	if s, ok := ss.byChat[chatID]; ok {
		return s
	}
	s = NewSession(chatID, ss.questions)
	ss.byChat[chatID] = s
	ss.order = append(ss.order, chatID)
	ss.evict()
	return s
}

// Len reports how many chats have a session
func (ss *Sessions) Len() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.byChat)
}

// evict trims the table down to limit. Must hold mu.
func (ss *Sessions) evict() {
	if len(ss.byChat) <= ss.limit {
		return
	}

	kept := ss.order[:0]
	for _, id := range ss.order {
		if len(ss.byChat) > ss.limit && ss.byChat[id].Finished() {
			delete(ss.byChat, id)
			continue
		}
		kept = append(kept, id)
	}
	ss.order = kept

	for len(ss.byChat) > ss.limit {
		oldest := ss.order[0]
		ss.order = ss.order[1:]
		delete(ss.byChat, oldest)
	}
}
