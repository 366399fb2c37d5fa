package openai

import "fmt"

// Prompt templates for initial generation and post-evaluation regeneration.
// The regeneration prompt is deliberately stricter: it names the previous
// answer as flawed and forbids knowledge from outside the context.

const chatSystemPrompt = "You are a helpful assistant that answers questions based on the provided context. " +
	"Use only the context information to answer the question accurately and keep answers concise. " +
	"If the context doesn't contain enough information to answer the question, " +
	"say that you don't have enough information rather than guessing."

const regenerateSystemPrompt = "You are a helpful assistant that answers questions based ONLY on the provided context. " +
	"The previous answer contained hallucinations or incorrect information. " +
	"Please provide a new answer that strictly adheres to the context provided. " +
	"If the context doesn't contain enough information to answer the question, " +
	"you must clearly state that you don't have enough information in the context. " +
	"Do not make up information or use knowledge outside the provided context."

func chatPrompt(question, context string) (system, user string) {
	if context == "" {
		return chatSystemPrompt, question
	}
	return chatSystemPrompt, fmt.Sprintf("Context:\n%s\n\nQuestion: %s", context, question)
}

func regeneratePrompt(question, previousAnswer, context string) (system, user string) {
	if context == "" {
		user = fmt.Sprintf(
			"Previous answer (had hallucinations): %s\n\nQuestion: %s\n\n"+
				"Please provide a corrected answer. If you don't have enough information, say so.",
			previousAnswer, question)
		return regenerateSystemPrompt, user
	}
	user = fmt.Sprintf(
		"Context:\n%s\n\nPrevious answer (had hallucinations): %s\n\nQuestion: %s\n\n"+
			"Please provide a corrected answer based strictly on the context above.",
		context, previousAnswer, question)
	return regenerateSystemPrompt, user
}
