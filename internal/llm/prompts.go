package llm

import "strings"

// SummaryMaxTokens bounds the completion length for chat summaries.
const SummaryMaxTokens = 512

// SummarizeChatPrompt builds the prompt for the time-windowed /summarize
// command from pre-rendered "name: content" history lines.
func SummarizeChatPrompt(lines []string) string {
	return "summarize the following chat:\nCHAT_BEGIN\n" +
		strings.Join(lines, "\n") +
		"\nCHAT_END\nYour summary should be no larger than two paragraphs of 4 sentences each."
}
