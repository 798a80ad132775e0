package bot

import (
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/korjavin/quizpollbot/models"
)

// pollOpenPeriod is how long, in seconds, a question poll accepts votes
const pollOpenPeriod = 40

// Sender is the outbound side of the messaging transport
type Sender interface {
	SendText(chatID int64, text string) error
	SendTyping(chatID int64) error
	// SendPoll posts q as a poll and returns the platform's poll id
	SendPoll(chatID int64, q models.Question) (string, error)
	AnswerCallback(callbackID string) error
}

type telegramSender struct {
	api *tgbotapi.BotAPI
}

func (s *telegramSender) SendText(chatID int64, text string) error {
	_, err := s.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (s *telegramSender) SendTyping(chatID int64) error {
	_, err := s.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
	return err
}

func (s *telegramSender) SendPoll(chatID int64, q models.Question) (string, error) {
	msg, err := s.api.Send(newPollConfig(chatID, q))
	if err != nil {
		return "", err
	}
	if msg.Poll == nil {
		return "", errors.New("sent message carries no poll")
	}
	return msg.Poll.ID, nil
}

func (s *telegramSender) AnswerCallback(callbackID string) error {
	_, err := s.api.Request(tgbotapi.NewCallback(callbackID, ""))
	return err
}

// newPollConfig builds an anonymous single-choice poll for q
func newPollConfig(chatID int64, q models.Question) tgbotapi.SendPollConfig {
	poll := tgbotapi.NewPoll(chatID, q.Text, q.Options...)
	poll.Type = "regular"
	poll.IsAnonymous = true
	poll.AllowsMultipleAnswers = false
	poll.OpenPeriod = pollOpenPeriod
	if q.Explanation != "" {
		poll.Explanation = escapeMarkdown(q.Explanation)
		poll.ExplanationParseMode = tgbotapi.ModeMarkdownV2
	}
	return poll
}

// escapeMarkdown escapes special characters for Telegram's MarkdownV2 format
func escapeMarkdown(text string) string {
	// Characters that need escaping in MarkdownV2: _*[]()~`>#+-=|{}.!
	specialChars := []string{"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}

	// Don't escape characters within code blocks
	parts := strings.Split(text, "```")
	for i := 0; i < len(parts); i += 2 {
		for _, char := range specialChars {
			parts[i] = strings.ReplaceAll(parts[i], char, "\\"+char)
		}
	}

	return strings.Join(parts, "```")
}
