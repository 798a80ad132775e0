package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/korjavin/quizpollbot/models"
)

type call struct {
	Kind   string
	ChatID int64
	Text   string
	PollID string
}

type fakeSender struct {
	mu       sync.Mutex
	calls    []call
	nextPoll int
	failText error
}

func (f *fakeSender) SendText(chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failText != nil {
		return f.failText
	}
	f.calls = append(f.calls, call{Kind: "text", ChatID: chatID, Text: text})
	return nil
}

func (f *fakeSender) SendTyping(chatID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{Kind: "typing", ChatID: chatID})
	return nil
}

func (f *fakeSender) SendPoll(chatID int64, q models.Question) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextPoll++
	id := fmt.Sprintf("poll-%d", f.nextPoll)
	f.calls = append(f.calls, call{Kind: "poll", ChatID: chatID, Text: q.Text, PollID: id})
	return id, nil
}

func (f *fakeSender) AnswerCallback(callbackID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{Kind: "callback", Text: callbackID})
	return nil
}

// take returns the calls recorded so far and forgets them
func (f *fakeSender) take() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.calls
	f.calls = nil
	return out
}

type fakeStore struct {
	mu      sync.Mutex
	records []models.AnswerRecord
	err     error
}

func (s *fakeStore) SaveAnswer(_ context.Context, rec models.AnswerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *fakeStore) SessionAnswers(_ context.Context, sessionID string) ([]models.AnswerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []models.AnswerRecord
	for _, r := range s.records {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) CountChatAnswers(_ context.Context, chatID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	n := 0
	for _, r := range s.records {
		if r.ChatID == chatID {
			n++
		}
	}
	return n, nil
}

var errSendFailed = errors.New("send failed")

func newTestBot(t *testing.T, store AnswerStore) (*Bot, *fakeSender, *bytes.Buffer) {
	t.Helper()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sender := &fakeSender{}
	return newBot(sender, store, logger, 0, 16, 16), sender, &logs
}

func commandUpdate(chatID int64, text string) tgbotapi.Update {
	u := textUpdate(chatID, text)
	u.Message.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}}
	return u
}

func textUpdate(chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			Text: text,
			Chat: &tgbotapi.Chat{ID: chatID},
			From: &tgbotapi.User{ID: chatID, FirstName: "Ada", LanguageCode: "en"},
		},
	}
}

// pollUpdate reports a vote for the option named choice on pollID
func pollUpdate(pollID, question, choice string) tgbotapi.Update {
	var options []tgbotapi.PollOption
	for _, o := range []string{"wine", "water", "soda"} {
		opt := tgbotapi.PollOption{Text: o}
		if o == choice {
			opt.VoterCount = 1
		}
		options = append(options, opt)
	}
	return tgbotapi.Update{
		Poll: &tgbotapi.Poll{ID: pollID, Question: question, Options: options, TotalVoterCount: 1},
	}
}

func lastPollID(calls []call) string {
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].Kind == "poll" {
			return calls[i].PollID
		}
	}
	return ""
}
