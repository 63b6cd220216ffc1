package llm

import (
	"fmt"
	"strings"
)

// TextTemplate is filled with the extracted question via fmt.
const TextTemplate = `
You are an exam assistant. Given the question below:
1. If it's a multiple choice question, respond only with the letter(s) of correct answer(s)
2. For other questions, provide only the direct answer without explanation
3. Keep the response as short as possible
4. Never explain your reasoning
5. Never add any additional text
Question: %s
Answer:`

// ImageTemplate is sent verbatim alongside the clipboard image. Vision models
// tend to ramble, hence the explicit word cap.
const ImageTemplate = `You are an exam assistant. Analyze this image:
1. For multiple choice: ONLY the correct letter(s)
2. Direct answer otherwise
3. No explanations
4. Max 5 words`

// ValidateTextTemplate checks that a custom text template has exactly one
// place for the question.
func ValidateTextTemplate(tmpl string) error {
	if n := strings.Count(tmpl, "%s"); n != 1 {
		return fmt.Errorf("text template must contain exactly one %%s, found %d", n)
	}
	if strings.Count(tmpl, "%") != 1 {
		return fmt.Errorf("text template must not contain other format verbs")
	}
	return nil
}

func textPrompt(tmpl, question string) string {
	return fmt.Sprintf(tmpl, question)
}
