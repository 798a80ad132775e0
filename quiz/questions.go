package quiz

import "github.com/korjavin/quizpollbot/models"

// DefaultQuestions is the fixed quiz every chat walks through
var DefaultQuestions = []models.Question{
	{
		Text:        "What is your favorite drink?",
		Options:     []string{"wine", "water", "soda"},
		Explanation: "It depends on what you eat",
	},
	{
		Text:        "What is your favorite food?",
		Options:     []string{"wine", "water", "soda"},
		Explanation: "It depends on what you feel",
	},
	{
		Text:        "What is your favorite appetizer?",
		Options:     []string{"wine", "water", "soda"},
		Explanation: "It depends on how you want to start",
	},
}
