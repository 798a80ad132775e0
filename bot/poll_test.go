package bot

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/korjavin/quizpollbot/models"
	"github.com/stretchr/testify/assert"
)

func TestExtractAnswer(t *testing.T) {
	tests := []struct {
		name    string
		options []tgbotapi.PollOption
		want    string
	}{
		{
			name:    "single voter",
			options: []tgbotapi.PollOption{{Text: "wine"}, {Text: "water", VoterCount: 1}, {Text: "soda"}},
			want:    "water",
		},
		{
			name:    "no votes",
			options: []tgbotapi.PollOption{{Text: "wine"}, {Text: "water"}, {Text: "soda"}},
			want:    "",
		},
		{
			name:    "two options with one voter",
			options: []tgbotapi.PollOption{{Text: "wine", VoterCount: 1}, {Text: "water", VoterCount: 1}, {Text: "soda"}},
			want:    "",
		},
		{
			name:    "more than one voter on an option",
			options: []tgbotapi.PollOption{{Text: "wine", VoterCount: 2}, {Text: "water", VoterCount: 1}},
			want:    "water",
		},
		{
			name: "no options",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractAnswer(tt.options))
		})
	}
}

func TestNewPollConfig(t *testing.T) {
	cfg := newPollConfig(5, models.Question{
		Text:        "What is your favorite drink?",
		Options:     []string{"wine", "water", "soda"},
		Explanation: "It depends on what you eat.",
	})

	assert.Equal(t, int64(5), cfg.ChatID)
	assert.Equal(t, "What is your favorite drink?", cfg.Question)
	assert.Equal(t, []string{"wine", "water", "soda"}, cfg.Options)
	assert.Equal(t, "regular", cfg.Type)
	assert.True(t, cfg.IsAnonymous)
	assert.False(t, cfg.AllowsMultipleAnswers)
	assert.Equal(t, 40, cfg.OpenPeriod)
	assert.Equal(t, `It depends on what you eat\.`, cfg.Explanation)
	assert.Equal(t, tgbotapi.ModeMarkdownV2, cfg.ExplanationParseMode)
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `a\_b \*c\* \(d\)\!`, escapeMarkdown("a_b *c* (d)!"))
	assert.Equal(t, "x\\.\n```\nkeep.this\n```", escapeMarkdown("x.\n```\nkeep.this\n```"))
	assert.Equal(t, `back\\slash`, escapeMarkdown(`back\slash`))
}
