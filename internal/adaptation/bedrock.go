package adaptation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

type bedrockConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockGenerator implements TextGenerator against the Bedrock Converse API.
type BedrockGenerator struct {
	api bedrockConverseAPI
}

func NewBedrockGenerator(api bedrockConverseAPI) *BedrockGenerator {
	if api == nil {
		panic("adaptation: bedrock converse client cannot be nil")
	}
	return &BedrockGenerator{api: api}
}

func (g *BedrockGenerator) Generate(ctx context.Context, req TextRequest) (TextResponse, error) {
	if strings.TrimSpace(req.Model) == "" {
		return TextResponse{}, errors.New("adaptation: bedrock model id is required")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return TextResponse{}, errors.New("adaptation: prompt is required")
	}

	systemBlocks := make([]brtypes.SystemContentBlock, 0, len(req.System))
	for _, block := range req.System {
		if strings.TrimSpace(block) == "" {
			continue
		}
		systemBlocks = append(systemBlocks, &brtypes.SystemContentBlockMemberText{Value: block})
	}

	messages := []brtypes.Message{{
		Role: brtypes.ConversationRoleUser,
		Content: []brtypes.ContentBlock{
			&brtypes.ContentBlockMemberText{Value: req.Prompt},
		},
	}}

	inference := &brtypes.InferenceConfiguration{}
	if req.MaxTokens > 0 {
		inference.MaxTokens = aws.Int32(req.MaxTokens)
	}
	if req.Temperature > 0 {
		inference.Temperature = aws.Float32(req.Temperature)
	}
	if req.TopP > 0 {
		inference.TopP = aws.Float32(req.TopP)
	}

	out, err := g.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId:         aws.String(req.Model),
		System:          systemBlocks,
		Messages:        messages,
		InferenceConfig: inference,
	})
	if err != nil {
		return TextResponse{}, fmt.Errorf("adaptation: bedrock converse failed: %w", err)
	}

	text, err := extractConverseText(out)
	if err != nil {
		return TextResponse{}, err
	}

	resp := TextResponse{Text: text, StopReason: string(out.StopReason)}
	if out.Usage != nil {
		if out.Usage.InputTokens != nil {
			resp.Usage.InputTokens = *out.Usage.InputTokens
		}
		if out.Usage.OutputTokens != nil {
			resp.Usage.OutputTokens = *out.Usage.OutputTokens
		}
		if out.Usage.TotalTokens != nil {
			resp.Usage.TotalTokens = *out.Usage.TotalTokens
		}
	}
	return resp, nil
}

func extractConverseText(out *bedrockruntime.ConverseOutput) (string, error) {
	msg, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok || len(msg.Value.Content) == 0 {
		return "", errors.New("adaptation: bedrock returned no content")
	}
	var b strings.Builder
	for _, block := range msg.Value.Content {
		if text, ok := block.(*brtypes.ContentBlockMemberText); ok {
			b.WriteString(text.Value)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", errors.New("adaptation: bedrock returned empty text")
	}
	return text, nil
}
