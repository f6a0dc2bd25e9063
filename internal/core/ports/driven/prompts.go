package driven

// Prompt names understood by PromptStore.
const (
	// PromptAnswerSystem is the answer system prompt. It takes one {{sources}}
	// placeholder for the grounding blocks.
	PromptAnswerSystem = "answer_system"
)

// PromptStore supplies user-editable prompt templates.
type PromptStore interface {
	// Load returns the template for name, falling back to the built-in
	// default when the user has not customised it.
	Load(name string) (string, error)
}
