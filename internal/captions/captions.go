package captions

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/your-org/memorybook/internal/config"
	"github.com/your-org/memorybook/internal/observability"
)

const systemPrompt = `You write short, warm captions for photos in a
family memory book. One or two sentences, present tense, no hashtags,
no emoji. Focus on the people and the moment, not the camera.`

// Generator produces narrative photo captions via the OpenAI API.
type Generator struct {
	client *openai.Client
	model  string
}

func NewGenerator(cfg config.OpenAIConfig) *Generator {
	client := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	return &Generator{client: &client, model: cfg.Model}
}

// Generate returns a caption for the image. Title, when present, is
// passed along as context for the model.
func (g *Generator) Generate(ctx context.Context, image []byte, title string) (string, error) {
	imageURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)

	userText := "Write a caption for this photo."
	if title != "" {
		userText = fmt.Sprintf("Write a caption for this photo. The photo is titled %q.", title)
	}

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(systemPrompt),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfArrayOfContentParts: []openai.ChatCompletionContentPartUnionParam{
							openai.TextContentPart(userText),
							openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
								URL:    imageURL,
								Detail: "low",
							}),
						},
					},
				},
			},
		},
		MaxTokens: openai.Int(120),
	})
	if err != nil {
		return "", fmt.Errorf("openai caption request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from openai")
	}

	caption := strings.TrimSpace(resp.Choices[0].Message.Content)
	if caption == "" {
		return "", errors.New("empty caption from openai")
	}

	observability.CaptionsGenerated.Inc()
	return caption, nil
}
