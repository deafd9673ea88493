package pipeline

import (
	"bytes"
	"fmt"
	"text/template"
)

const AnswerSystemMessage = `You are an intelligent document assistant.
Use only the context below to answer the question.
If the context does not contain the answer, say that you do not know.`

const answerPromptTmpl = `Context:
{{.Context}}

Question:
{{.Question}}

Answer:`

// promptData holds the data needed for prompt template execution
type promptData struct {
	Question string
	Context  string
}

func buildAnswerPrompt(question, context string) (string, error) {
	var buf bytes.Buffer

	t := template.Must(template.New("answer").Parse(answerPromptTmpl))
	if err := t.Execute(&buf, promptData{Question: question, Context: context}); err != nil {
		return "", fmt.Errorf("failed to execute answer template: %w", err)
	}

	return buf.String(), nil
}
