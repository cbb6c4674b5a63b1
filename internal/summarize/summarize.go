// Package summarize condenses long notification messages into one-line
// summaries via an external text-generation capability. All backends are
// best-effort: any failure resolves to "no summary", never an error the
// notification path has to care about.
package summarize

import "context"

// DefaultMinLength is the message length under which summarization is never
// attempted. Short messages read faster than any summary of them.
const DefaultMinLength = 80

// prompt wraps the message for the model. The output contract (summary only,
// no preamble) is what lets the result go straight into a desktop
// notification.
const prompt = "Summarize the following notification message in one concise sentence (max 100 chars). Output ONLY the summary, no explanation.\n\n"

// Summarizer produces a one-line summary of a message.
type Summarizer interface {
	Summarize(ctx context.Context, message string) (string, error)
}

// ShouldSummarize reports whether a message is long enough to be worth
// summarizing. minLength <= 0 falls back to DefaultMinLength.
func ShouldSummarize(message string, minLength int) bool {
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	return len(message) > minLength
}
