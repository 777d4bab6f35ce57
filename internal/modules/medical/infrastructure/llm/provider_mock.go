package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// MockChatModel answers with a canned completion so the service can run
// end-to-end without provider credentials. Paired with the mock embedders in
// the example config.
type MockChatModel struct{}

var _ model.BaseChatModel = (*MockChatModel)(nil)

func NewMockChatModel() *MockChatModel { return &MockChatModel{} }

func (m *MockChatModel) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	var user string
	for _, msg := range in {
		if msg != nil && msg.Role == schema.User {
			user = msg.Content
		}
	}
	content := fmt.Sprintf("[mock completion] This deployment runs without a chat model provider. "+
		"Configure aiConfig.chatModel to get real clinical reasoning. Prompt was %d characters.", len(user))
	return &schema.Message{Role: schema.Assistant, Content: content}, nil
}

func (m *MockChatModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, in, opts...)
	if err != nil {
		return nil, err
	}
	sr, sw := schema.Pipe[*schema.Message](1)
	sw.Send(msg, nil)
	sw.Close()
	return sr, nil
}
