package sage

import (
	"fmt"
	"strings"
)

const (
	introLabel      = "Introduction:"
	conclusionLabel = "Conclusion:"
)

func rosterPrompt(topic string, size int) string {
	return fmt.Sprintf(`Create %d diverse AI analyst personas for the topic: %s.
Output in JSON format with a single key 'analysts' containing an array of objects, each with fields: name, role, affiliation.`, size, topic)
}

func questionPrompt(a Analyst, topic string) string {
	return fmt.Sprintf("You are %s, %s. Ask a question about %s.", a.Name, a.Role, topic)
}

const searchQueryPrompt = "Generate a search query based on the question."

func answerPrompt(topic, context string) string {
	return fmt.Sprintf(`You are an expert answering questions about %s.
Use this context to answer: %s`, topic, context)
}

func summaryPrompt(topic string, a Analyst) string {
	return fmt.Sprintf("Summarize this interview about %s conducted by %s:", topic, a.Name)
}

func interviewTranscript(question, answer string) string {
	return fmt.Sprintf("Q: %s\nA: %s", question, answer)
}

func reportPrompt(topic string, sections []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a comprehensive report on %s based on these sections:\n", topic)
	for i, s := range sections {
		fmt.Fprintf(&b, "\nSection %d:\n%s\n", i+1, s)
	}
	return b.String()
}

func introConclusionPrompt(topic string) string {
	return fmt.Sprintf(`Write an introduction and conclusion for this report on %s.
Format your response as follows:
%s
[Your introduction here]
%s
[Your conclusion here]`, topic, introLabel, conclusionLabel)
}

func failedInterviewSection(a Analyst) string {
	return fmt.Sprintf("The interview with %s (%s, %s) could not be completed.", a.Name, a.Role, a.Affiliation)
}
