package models

import (
	"fmt"
	"time"
)

// Question is one multiple-choice quiz question. Its position in the quiz
// is its only identity.
type Question struct {
	Text        string
	Options     []string
	Explanation string
}

// Answer pairs a question with the option the user picked
type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (a Answer) String() string {
	return fmt.Sprintf("{question: %s, answer: %s}", a.Question, a.Answer)
}

// AnswerRecord is an answer as stored in the archive
type AnswerRecord struct {
	SessionID string
	ChatID    int64
	Question  string
	Answer    string
	Timestamp int64
}

// NewAnswerRecord stamps an answer with its session and the current time
func NewAnswerRecord(sessionID string, chatID int64, a Answer) AnswerRecord {
	return AnswerRecord{
		SessionID: sessionID,
		ChatID:    chatID,
		Question:  a.Question,
		Answer:    a.Answer,
		Timestamp: time.Now().Unix(),
	}
}
