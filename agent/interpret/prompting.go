package interpret

import (
	"fmt"
	"strings"
)

// composePrompt renders the interpreter prompt for one run of sign labels.
func composePrompt(labels []string) string {
	sequence := strings.Join(labels, " ")
	return fmt.Sprintf(`You are a real-time ASL interpreter giving voice to a deaf user.
Translate the following sequence of detected ASL signs into a single, natural English sentence.

Signs: %s

Rules:
- Return ONLY the interpreted English sentence, no explanation, no preamble.
- Apply ASL grammar: topic-comment structure, add articles and copulas as needed.
- If the signs are individual letters, treat them as fingerspelling and form the word.
- Speak in first person when the user signs about themselves.`, sequence)
}
