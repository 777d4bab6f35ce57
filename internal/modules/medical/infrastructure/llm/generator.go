package llm

import (
	"context"
	"fmt"
	"strings"

	"MediVision/internal/modules/medical/domain/entity"
	"MediVision/pkg/zlog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
)

// Generator is the single text-generation gateway. Every RAG operation goes
// through Complete; one request, one response, no streaming and no tools.
type Generator struct {
	chatModel model.BaseChatModel
	meta      ChatModelMeta
}

func NewGenerator(chatModel model.BaseChatModel, meta ChatModelMeta) *Generator {
	return &Generator{chatModel: chatModel, meta: meta}
}

func (g *Generator) Meta() ChatModelMeta { return g.meta }

// Complete sends the user prompt (with an optional system prompt prepended)
// and returns the generated text. Provider failures wrap
// entity.ErrGenerationFailed so callers can map them uniformly.
func (g *Generator) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32, maxTokens int) (string, error) {
	if g == nil || g.chatModel == nil {
		return "", fmt.Errorf("%w: chat model not configured", entity.ErrGenerationFailed)
	}

	msgs := make([]*schema.Message, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		msgs = append(msgs, &schema.Message{Role: schema.System, Content: systemPrompt})
	}
	msgs = append(msgs, &schema.Message{Role: schema.User, Content: userPrompt})

	opts := []model.Option{}
	if temperature > 0 {
		opts = append(opts, model.WithTemperature(temperature))
	}
	if maxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(maxTokens))
	}

	resp, err := g.chatModel.Generate(ctx, msgs, opts...)
	if err != nil {
		zlog.Error("chat model generate failed",
			zap.String("provider", g.meta.Provider),
			zap.String("model", g.meta.Model),
			zap.Error(err))
		return "", fmt.Errorf("%w: %v", entity.ErrGenerationFailed, err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("%w: empty completion", entity.ErrGenerationFailed)
	}
	return resp.Content, nil
}
