package bot

import (
	"fmt"
	"strings"

	"github.com/abhisek/tutorbot/internal/store"
)

const (
	msgAdminOnly        = "Sorry, this command is only available for admins."
	msgNotSubscribed    = "You are not subscribed to the bot."
	msgGenericError     = "Sorry, something went wrong. Please try again."
	msgChooseOption     = "Please choose one of the options above."
	msgAssessmentBegin  = "Great! Let's begin the assessment."
	msgAssessmentLater  = "Ok, you can start the assessment anytime."
	msgOfferExpired     = "This offer has expired. Send /start to begin again."
	msgAssessmentCancel = "Assessment cancelled."
	msgNothingToCancel  = "There is no assessment to cancel."
	msgCorrect          = "Correct!"
	msgWrong            = "Wrong."
	msgUngraded         = "I couldn't grade that answer just now. Please send your answer again."
	msgThinking         = "Thinking...."
	msgAskFailed        = "Sorry, I couldn't answer that right now. Please try again later."
	msgAskUsage         = "Usage: /ask <your question>"
	msgUnsubscribeAsk   = "Are you sure you want to unsubscribe from the bot? *All your records will be deleted.*"
	msgUnsubscribed     = "You have been unsubscribed."
	msgStay             = "We are glad to have you!"
	msgNoTaskToSkip     = "You don't have an active daily task to skip!"
	msgTaskSkipped      = "Daily task skipped. Wait for the next one!"
	msgIntervalUsage    = "Usage: /task_interval <hours>, a whole number from 1 to 720."
	msgInsertUsage      = "Usage: /insert_q <question text> <beginner|intermediate|advanced>"
	msgDuplicate        = "That question already exists."
	msgDeleteUsage      = "Usage: /delete_q <question id>"
	msgNoQuestions      = "No questions available."
	msgNoLearners       = "No learners yet."
	msgNoTask           = "I don't have a question waiting for your answer. Send /help to see what I can do."
	msgUnknownCommand   = "Unknown command. Send /help for the list of commands."
)

const helpText = `I help you practise Python.

/start - take the placement assessment
/cancel - cancel the assessment
/ask <question> - ask me anything about Python
/my_level - show your level and score
/top_learners - show the leaderboard
/task_interval <hours> - how often you get a daily task (1-720)
/skip - skip the current daily task
/unsubscribe - delete your account
/help - show this message

When a daily task arrives, just reply with your answer.`

const adminHelpText = `

Admin:
/insert_q <question> <level> - add a practice question
/delete_q <id> - delete a practice question
/get_questions - list all practice questions`

// maxMessageLen keeps listings under Telegram's 4096 character limit.
const maxMessageLen = 4000

var offerButtons = []Button{
	{Text: "Yes, let's start!", Data: CallbackStartAssessment},
	{Text: "No, maybe later", Data: CallbackDeclineAssessment},
}

var unsubscribeButtons = []Button{
	{Text: "Yes, I'm sure", Data: CallbackUnsubscribe},
	{Text: "No, I will stay", Data: CallbackStay},
}

func welcomeBack(name string) string {
	return fmt.Sprintf("Welcome back, %s.", name)
}

func assessmentOffer(name string, size int) string {
	return fmt.Sprintf("Hello, %s. I see this is the first time you use the bot.\n"+
		"How about you take an assessment to determine your level? "+
		"Our assessment has %d questions.", name, size)
}

func assessmentDone(level string) string {
	return fmt.Sprintf("Assessment completed! Your level is: %s", level)
}

// TaskMessage is the text of a delivered daily task.
func TaskMessage(question string) string {
	return "🎯 Here's your daily Python challenge!\n\n" + question +
		"\n\nReply with your answer or use /skip to skip this question."
}

func taskCorrect(delta, score int) string {
	return fmt.Sprintf("🎉 Correct! You earned %d points.\nYour new score is: %d", delta, score)
}

func taskWrong(delta, score int) string {
	return fmt.Sprintf("❌ That's not quite right. You lost %d points.\nYour new score is: %d", delta, score)
}

func levelLine(level string, score int) string {
	return fmt.Sprintf("Your level is %s with a score of %d.", level, score)
}

// leaderboard renders the top learners as a fixed-width Markdown block.
func leaderboard(users []store.User) string {
	var b strings.Builder
	b.WriteString("🏆 Top Learners 🏆\n```\n")
	fmt.Fprintf(&b, "%-10s %-12s %-5s\n", "Name", "Level", "Score")
	b.WriteString(strings.Repeat("-", 30))
	b.WriteString("\n")
	for _, u := range users {
		fmt.Fprintf(&b, "%-10s %-12s %-5d\n", clip(u.Name, 10), u.Level, u.Score)
	}
	b.WriteString("```")
	return b.String()
}

// questionPages renders the bank one line per question, split into
// messages of at most maxMessageLen bytes.
func questionPages(qs []store.Question) []string {
	var pages []string
	var b strings.Builder
	for _, q := range qs {
		line := fmt.Sprintf("%d. %s (%s)\n", q.ID, q.Text, q.Level)
		if b.Len() > 0 && b.Len()+len(line) > maxMessageLen {
			pages = append(pages, strings.TrimRight(b.String(), "\n"))
			b.Reset()
		}
		b.WriteString(line)
	}
	if b.Len() > 0 {
		pages = append(pages, strings.TrimRight(b.String(), "\n"))
	}
	return pages
}

// clip shortens s to n runes, markdown fences stripped.
func clip(s string, n int) string {
	s = strings.ReplaceAll(s, "`", "'")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
