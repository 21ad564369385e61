package relate

import (
	"context"
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/sashabaranov/go-openai"
)

// CompleteFunc submits one prompt to the relationship completion capability
// and returns the raw text response. All parsing and repair of the response
// happens downstream.
type CompleteFunc func(ctx context.Context, prompt string) (string, error)

// CompleterConfig holds the connection settings of the completion endpoint.
type CompleterConfig struct {
	Endpoint string `env:"KG_LLM_ENDPOINT" env-default:"https://api.openai.com/v1"`
	Model    string `env:"KG_LLM_MODEL" env-default:"gpt-4o-mini"`
	APIKey   string `env:"KG_LLM_API_KEY" env-default:""`
}

// NewCompleterConfigFromEnv reads the completer configuration from the
// environment.
func NewCompleterConfigFromEnv() (*CompleterConfig, error) {
	config := &CompleterConfig{}
	err := cleanenv.ReadEnv(config)
	if err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultCompleter creates a CompleteFunc backed by an OpenAI-compatible
// chat completion endpoint.
func DefaultCompleter(config *CompleterConfig) (CompleteFunc, error) {
	if config == nil {
		var err error
		config, err = NewCompleterConfigFromEnv()
		if err != nil {
			return nil, err
		}
	}
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(config.Endpoint, "/")
	client := openai.NewClientWithConfig(clientConfig)

	return func(ctx context.Context, prompt string) (string, error) {
		resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: config.Model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: 0,
		})
		if err != nil {
			return "", fmt.Errorf("chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("no choices in response")
		}
		return resp.Choices[0].Message.Content, nil
	}, nil
}
