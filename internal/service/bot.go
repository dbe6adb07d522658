package service

import (
	"strings"
)

const fallbackAnswer = "I'm your study buddy, ask me about attendance, exams, networks, or your project."

type rule struct {
	keywords []string
	answer   string
}

// rules are checked in order, the first keyword hit wins.
var rules = []rule{
	{
		keywords: []string{"attendance"},
		answer:   "Click the Mark Attendance button on dashboard (+5 points). Export CSV available.",
	},
	{
		keywords: []string{"exam"},
		answer:   "Mid-term prep: summary notes + previous papers. Check the dept circular for exact dates.",
	},
	{
		keywords: []string{"tcp", "network"},
		answer:   "Focus: OSI vs TCP/IP layers, subnetting, and HTTP request flow. Try Wireshark once!",
	},
	{
		keywords: []string{"project"},
		answer:   "This app itself: Attendance + Leaderboard + Polls + Games. Scan the attendance QR code next.",
	},
}

type BotService interface {
	Answer(question string) string
}

type botService struct{}

func NewBotService() BotService {
	return &botService{}
}

// Answer - picks the canned answer for the first matching keyword.
func (that *botService) Answer(question string) string {
	question = strings.ToLower(question)

	for _, r := range rules {
		for _, keyword := range r.keywords {
			if strings.Contains(question, keyword) {
				return r.answer
			}
		}
	}

	return fallbackAnswer
}
