package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/korjavin/quizpollbot/models"
	"github.com/korjavin/quizpollbot/quiz"
)

const (
	cmdStart   = "start"
	cmdHelp    = "help"
	cmdHi      = "hi"
	cmdAnswers = "answers"

	welcomeText   = "Welcome to Chatbot quiz Bot."
	helpText      = "This is the Quiz Chat Bot. Type /start to start!"
	closingText   = "This was the last question. Thank you for your participation! 🎉"
	noAnswersText = "No answers yet. Type /start to begin!"
	ackFormat     = "Your answer was %s"
	echoFormat    = "You said: %s"
)

// HandleUpdate processes a single update. Failures are logged and never
// reported back to the chat.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("recovered from panic while handling update",
				"update_id", update.UpdateID, "kind", updateKind(update), "panic", r)
		}
	}()

	if err := b.dispatch(ctx, update); err != nil {
		b.log.Error("failed to handle update",
			"update_id", update.UpdateID, "kind", updateKind(update), "error", err)
	}
}

func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) error {
	switch {
	case update.Message != nil:
		return b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		return b.handleCallback(ctx, update.CallbackQuery)
	case update.Poll != nil:
		return b.handlePollUpdate(ctx, update.Poll)
	default:
		b.log.Debug("ignoring update", "update_id", update.UpdateID, "kind", updateKind(update))
		return nil
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	if message.Chat == nil {
		return errors.New("message without chat")
	}
	chatID := message.Chat.ID
	b.log.Info("message received", "chat_id", chatID, "from", userFrom(message.From).String(), "text", message.Text)

	if message.IsCommand() {
		switch message.Command() {
		case cmdStart:
			return b.handleStart(ctx, chatID)
		case cmdHelp, cmdHi:
			return b.sender.SendText(chatID, helpText)
		case cmdAnswers:
			return b.handleAnswers(ctx, chatID)
		}
	}

	if message.Text == "" {
		b.log.Debug("ignoring message without text", "chat_id", chatID)
		return nil
	}
	return b.echo(ctx, chatID, message.Text)
}

func (b *Bot) handleStart(ctx context.Context, chatID int64) error {
	s := b.sessions.Get(chatID)
	s.Lock()
	defer s.Unlock()

	if err := b.sender.SendText(chatID, welcomeText); err != nil {
		return fmt.Errorf("failed to send welcome: %w", err)
	}
	if err := b.typing(ctx, chatID); err != nil {
		return err
	}
	if err := s.Start(ctx); err != nil {
		return err
	}
	return b.presentNext(ctx, s)
}

// presentNext sends the pending question as a poll, or the closing message
// once there is none left. The session lock must be held.
func (b *Bot) presentNext(ctx context.Context, s *quiz.Session) error {
	if q, idx, ok := s.Current(); ok {
		pollID, err := b.sender.SendPoll(s.ChatID, q)
		if err != nil {
			return fmt.Errorf("failed to send question %d: %w", idx, err)
		}
		b.polls.Put(pollID, quiz.PollRef{ChatID: s.ChatID, Question: idx})
		b.log.Info("question sent", "chat_id", s.ChatID, "session_id", s.ID, "poll_id", pollID, "question", idx)
		return nil
	}

	if n := b.polls.EvictChat(s.ChatID); n > 0 {
		b.log.Debug("evicted outstanding polls", "chat_id", s.ChatID, "count", n)
	}
	if err := b.typing(ctx, s.ChatID); err != nil {
		return err
	}
	return b.sender.SendText(s.ChatID, closingText)
}

func (b *Bot) handlePollUpdate(ctx context.Context, poll *tgbotapi.Poll) error {
	if poll.IsClosed {
		b.log.Debug("ignoring closed poll", "poll_id", poll.ID)
		return nil
	}

	ref, err := b.polls.Lookup(poll.ID)
	if err != nil {
		return err
	}

	s := b.sessions.Get(ref.ChatID)
	s.Lock()
	defer s.Unlock()

	// checked again under the session lock so a duplicate update cannot count twice
	if _, err := b.polls.Lookup(poll.ID); err != nil {
		return err
	}
	if err := s.Expect(ref.Question); err != nil {
		b.polls.Resolve(poll.ID)
		return fmt.Errorf("poll %s: %w", poll.ID, err)
	}

	answer := ExtractAnswer(poll.Options)

	// the poll stays registered until the answer is recorded, so a failed
	// reply can be retried by the next update for it
	if err := b.typing(ctx, s.ChatID); err != nil {
		return err
	}
	if err := b.sender.SendText(s.ChatID, fmt.Sprintf(ackFormat, answer)); err != nil {
		return fmt.Errorf("failed to acknowledge answer: %w", err)
	}

	a, err := s.Record(ctx, ref.Question, answer)
	if err != nil {
		return fmt.Errorf("failed to record answer for poll %s: %w", poll.ID, err)
	}
	if _, err := b.polls.Resolve(poll.ID); err != nil {
		return err
	}
	b.log.Info("answer recorded", "chat_id", s.ChatID, "session_id", s.ID, "answer", a.String())
	b.archive(ctx, s, a)

	return b.presentNext(ctx, s)
}

func (b *Bot) archive(ctx context.Context, s *quiz.Session, a models.Answer) {
	if b.store == nil {
		return
	}
	if err := b.store.SaveAnswer(ctx, models.NewAnswerRecord(s.ID.String(), s.ChatID, a)); err != nil {
		b.log.Error("failed to archive answer", "chat_id", s.ChatID, "session_id", s.ID, "error", err)
	}
}

func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	b.log.Info("callback received", "from", userFrom(callback.From).String(), "data", callback.Data)

	if err := b.sender.AnswerCallback(callback.ID); err != nil {
		return fmt.Errorf("failed to answer callback: %w", err)
	}
	if callback.Message == nil || callback.Message.Chat == nil {
		return errors.New("callback query without message")
	}
	return b.echo(ctx, callback.Message.Chat.ID, callback.Data)
}

func (b *Bot) handleAnswers(ctx context.Context, chatID int64) error {
	s := b.sessions.Get(chatID)
	s.Lock()
	answers := s.Answers()
	s.Unlock()

	// the archive is authoritative when present; memory covers a failed read
	if b.store != nil {
		archived, err := b.store.SessionAnswers(ctx, s.ID.String())
		if err != nil {
			b.log.Error("failed to read archived answers", "chat_id", chatID, "session_id", s.ID, "error", err)
		} else {
			answers = answers[:0]
			for _, rec := range archived {
				answers = append(answers, models.Answer{Question: rec.Question, Answer: rec.Answer})
			}
		}
	}

	var sb strings.Builder
	if len(answers) == 0 {
		sb.WriteString(noAnswersText)
	} else {
		sb.WriteString("Your answers so far:\n")
		for i, a := range answers {
			fmt.Fprintf(&sb, "%d. %s %s\n", i+1, a.Question, a.Answer)
		}
	}

	if b.store != nil {
		n, err := b.store.CountChatAnswers(ctx, chatID)
		if err != nil {
			b.log.Error("failed to count archived answers", "chat_id", chatID, "error", err)
		} else {
			fmt.Fprintf(&sb, "\nArchived answers for this chat: %d", n)
		}
	}

	return b.sender.SendText(chatID, strings.TrimRight(sb.String(), "\n"))
}

func (b *Bot) echo(ctx context.Context, chatID int64, text string) error {
	if err := b.typing(ctx, chatID); err != nil {
		return err
	}
	return b.sender.SendText(chatID, fmt.Sprintf(echoFormat, text))
}

// typing shows the typing indicator and pauses before the reply
func (b *Bot) typing(ctx context.Context, chatID int64) error {
	if err := b.sender.SendTyping(chatID); err != nil {
		return fmt.Errorf("failed to send typing indicator: %w", err)
	}
	if b.typingDelay <= 0 {
		return nil
	}

	t := time.NewTimer(b.typingDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func userFrom(from *tgbotapi.User) models.User {
	if from == nil {
		return models.User{Lang: "n/a"}
	}
	u := models.User{
		ID:        from.ID,
		FirstName: from.FirstName,
		LastName:  from.LastName,
		Lang:      from.LanguageCode,
	}
	if u.Lang == "" {
		u.Lang = "n/a"
	}
	return u
}

func updateKind(update tgbotapi.Update) string {
	switch {
	case update.Message != nil:
		return "message"
	case update.CallbackQuery != nil:
		return "callback_query"
	case update.Poll != nil:
		return "poll"
	case update.PollAnswer != nil:
		return "poll_answer"
	default:
		return "other"
	}
}
