package port

// Generator produces the final answer text from an assembled prompt.
type Generator interface {
	// Generate generates text based on the prompt.
	Generate(prompt string) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}
