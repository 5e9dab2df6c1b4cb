package domain

import "strings"

// aiKeywords is the fixed AI/ML vocabulary used for tagging ranked items
// and building the topic co-occurrence graph.
var aiKeywords = []string{
	"llm", "gpt", "claude", "gemini", "llama", "mistral", "mixtral",
	"transformer", "attention", "bert", "diffusion", "stable diffusion",
	"reinforcement learning", "deep learning", "neural network",
	"machine learning", "fine-tuning", "quantization", "lora", "qlora", "gguf",
	"ollama", "huggingface", "pytorch", "tensorflow", "jax",
	"langchain", "llamaindex", "vector database", "embedding",
	"rag", "retrieval", "agent", "autonomous", "multimodal", "agi",
	"openai", "anthropic", "rlhf",
}

// Keywords returns a copy of the AI/ML vocabulary.
func Keywords() []string {
	out := make([]string, len(aiKeywords))
	copy(out, aiKeywords)

	return out
}

// ExtractTopics returns the vocabulary keywords present in text,
// case-insensitively, in vocabulary order.
func ExtractTopics(text string) []string {
	lower := strings.ToLower(text)

	var found []string

	for _, kw := range aiKeywords {
		if strings.Contains(lower, kw) {
			found = append(found, kw)
		}
	}

	return found
}
