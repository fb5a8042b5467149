package authoring

import (
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/flashdeck/internal/card"
)

const commonRules = `Rules:
- Be accurate and concise. Flashcards are read in a few seconds.
- Use plain text. No markdown, no LaTeX.
- Respond with a single JSON object matching the schema and nothing else.`

var rolePrompts = map[card.Type]string{
	card.TypeBasic: `You are a knowledgeable tutor. Provide a clear, concise and accurate answer to the question.
Example: {"answer": "The speed of light is approximately 299,792,458 meters per second", "explanation": "It is the upper limit for how fast anything can travel."}`,

	card.TypeDefinition: `You are a dictionary. Provide a clear, concise and accurate definition of the term.
Put etymology or extra context in the explanation.`,

	card.TypeMultipleChoice: `You are a test creator. Create exactly 4 options for the question, one of them correct.
Distractors should be plausible mistakes, not jokes. correct_answer must repeat the correct option text exactly.`,

	card.TypeTrueFalse: `You are a test creator. Decide whether the statement is true or false.
correct_answer must be "True" or "False".`,

	card.TypeFillInBlank: `You are a test creator. The question contains a blank written as _____.
correct_answer is only the text that belongs in the blank.`,
}

// systemPrompt builds the system prompt for a card type. now anchors the
// model in time for questions about recent events.
func systemPrompt(t card.Type, now time.Time) string {
	role, ok := rolePrompts[t]
	if !ok {
		role = rolePrompts[card.TypeBasic]
	}
	return fmt.Sprintf("%s\nYou are answering this question in %s.\n\n%s",
		role, now.Format("January 2006"), commonRules)
}

// userMessage is the question as the learner will see it, with an
// optional hint from the card author.
func userMessage(question, hint string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", strings.TrimSpace(question))
	if hint = strings.TrimSpace(hint); hint != "" {
		fmt.Fprintf(&b, "Author notes: %s\n", hint)
	}
	return b.String()
}
