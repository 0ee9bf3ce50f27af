package llm

import "fmt"

// Llama 3 instruct prompt layout. The context variant folds retrieved
// material into the system header; the plain variant skips the context
// section entirely rather than emitting an empty one.
const (
	promptWithContext = `<|begin_of_text|><|start_header_id|>system<|end_header_id|>

%s

Context:
%s<|eot_id|><|start_header_id|>user<|end_header_id|>

%s<|eot_id|><|start_header_id|>assistant<|end_header_id|>

`
	promptWithoutContext = `<|begin_of_text|><|start_header_id|>system<|end_header_id|>

%s<|eot_id|><|start_header_id|>user<|end_header_id|>

%s<|eot_id|><|start_header_id|>assistant<|end_header_id|>

`
)

// FormatPrompt deterministically embeds the system instructions, the
// user message, and optional retrieved context into the model template.
func FormatPrompt(systemPrompt, userMessage, context string) string {
	if context == "" {
		return fmt.Sprintf(promptWithoutContext, systemPrompt, userMessage)
	}
	return fmt.Sprintf(promptWithContext, systemPrompt, context, userMessage)
}
