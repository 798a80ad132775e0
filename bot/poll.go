package bot

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// ExtractAnswer returns the text of the single option that has exactly one
// voter. Polls are meant for one respondent, so anything else (no such
// option, or several) yields "".
func ExtractAnswer(options []tgbotapi.PollOption) string {
	answer := ""
	found := 0
	for _, o := range options {
		if o.VoterCount == 1 {
			answer = o.Text
			found++
		}
	}
	if found != 1 {
		return ""
	}
	return answer
}
