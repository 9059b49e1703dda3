package storyline

import (
	"fmt"
	"strings"
)

const systemPromptTemplate = `You are skilled at captivating storytelling for educational purposes.
You build compelling, structured and exhaustive narratives around academic topics.

You will receive a topic. Answer with a storyline of exactly %[1]d slides for a slide deck about: %[2]s

Instructions:
- Answer with a flat JSON object with exactly %[1]d keys named "Slide 1", "Slide 2" ... "Slide %[1]d".
- Every value is a storypoint: the point that slide is trying to make, as a short sentence.
- Never produce more than %[1]d slides. This is important.
- Only answer with the JSON object. No greetings, no explanations, do not repeat the task.`

// BuildSystemPrompt fixes the output shape for topic and count
func BuildSystemPrompt(topic string, count int) string {
	return fmt.Sprintf(systemPromptTemplate, count, strings.TrimSpace(topic))
}
