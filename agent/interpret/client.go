package interpret

import (
	"context"
	"strings"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client prompts a Gemini model to turn recognized sign sequences into
// English sentences.
type Client struct {
	apiKey  string
	model   string
	baseURL string
}

type ClientOption func(*Client)

// WithBaseURL points the client at a different generative language host.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func NewClient(apiKey string, model string, opts ...ClientOption) *Client {
	client := &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

type sentenceResponse struct {
	Sentence string `json:"sentence" jsonschema:"description=The interpreted English sentence."`
}

// ComposeSentence translates one run of detected sign labels into a single
// natural English sentence. An empty result means the model produced
// nothing usable.
func (c *Client) ComposeSentence(ctx context.Context, labels []string) (string, error) {
	if len(labels) == 0 {
		return "", nil
	}

	response, err := PromptJSONSchema(ctx, c, composePrompt(labels), sentenceResponse{})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(response.Sentence), nil
}
