package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/google/generative-ai-go/genai"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOpenAI struct {
	req  openai.ChatCompletionRequest
	resp openai.ChatCompletionResponse
	err  error
}

func (f *fakeOpenAI) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.req = req
	return f.resp, f.err
}

func TestOpenAIClient_Complete(t *testing.T) {
	api := &fakeOpenAI{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message:      openai.ChatCompletionMessage{Content: "  {\"mode\":\"chat\"}  "},
			FinishReason: openai.FinishReasonStop,
		}},
		Usage: openai.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}}
	client := newOpenAIClientWithAPI(api, "")

	resp, err := client.Complete(context.Background(), Request{
		System:      []string{"be brief", "  "},
		Messages:    []Message{{Role: RoleUser, Content: "hi"}, {Role: RoleAssistant, Content: ""}, {Role: RoleAssistant, Content: "hello"}},
		Temperature: 0.2,
		JSON:        true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"mode":"chat"}`, resp.Text)
	assert.Equal(t, int32(15), resp.Usage.TotalTokens)
	assert.Equal(t, "stop", resp.StopReason)

	assert.Equal(t, defaultOpenAIModel, api.req.Model)
	require.Len(t, api.req.Messages, 3)
	assert.Equal(t, openai.ChatMessageRoleSystem, api.req.Messages[0].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, api.req.Messages[2].Role)
	require.NotNil(t, api.req.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, api.req.ResponseFormat.Type)
	assert.InDelta(t, 0.2, api.req.Temperature, 1e-6)
}

func TestOpenAIClient_Errors(t *testing.T) {
	client := newOpenAIClientWithAPI(&fakeOpenAI{err: errors.New("429")}, "gpt-4o")
	_, err := client.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	assert.Error(t, err)

	client = newOpenAIClientWithAPI(&fakeOpenAI{}, "gpt-4o")
	_, err = client.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	assert.ErrorContains(t, err, "no choices")

	_, err = client.Complete(context.Background(), Request{Messages: []Message{{Role: "tool", Content: "x"}}})
	assert.ErrorContains(t, err, "unsupported role")
}

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	_, err := NewOpenAIClient(" ", "")
	assert.Error(t, err)
}

type fakeBedrock struct {
	in  *bedrockruntime.ConverseInput
	out *bedrockruntime.ConverseOutput
	err error
}

func (f *fakeBedrock) Converse(_ context.Context, in *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.in = in
	return f.out, f.err
}

func TestBedrockClient_Complete(t *testing.T) {
	api := &fakeBedrock{out: &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{
			Role:    brtypes.ConversationRoleAssistant,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: "ok"}},
		}},
		StopReason: brtypes.StopReasonEndTurn,
		Usage:      &brtypes.TokenUsage{InputTokens: aws.Int32(3), OutputTokens: aws.Int32(1), TotalTokens: aws.Int32(4)},
	}}
	client := NewBedrockClient(api, "anthropic.claude-3-haiku")

	resp, err := client.Complete(context.Background(), Request{
		System:      []string{"sys"},
		Messages:    []Message{{Role: RoleSystem, Content: "extra"}, {Role: RoleUser, Content: "hi"}},
		Temperature: -1,
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, int32(4), resp.Usage.TotalTokens)
	assert.Equal(t, "anthropic.claude-3-haiku", aws.ToString(api.in.ModelId))
	assert.Len(t, api.in.System, 2)
	assert.Len(t, api.in.Messages, 1)
	assert.Nil(t, api.in.InferenceConfig)
}

func TestBedrockClient_EmptyOutput(t *testing.T) {
	client := NewBedrockClient(&fakeBedrock{out: &bedrockruntime.ConverseOutput{}}, "m")
	_, err := client.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	assert.Error(t, err)

	_, err = NewBedrockClient(&fakeBedrock{}, "").Complete(context.Background(), Request{})
	assert.ErrorContains(t, err, "model id is required")
}

func TestGeminiHistory(t *testing.T) {
	history, last, err := geminiHistory([]Message{
		{Role: RoleSystem, Content: "ignored"},
		{Role: RoleAssistant, Content: "welcome"},
		{Role: RoleUser, Content: "book a demo"},
		{Role: RoleAssistant, Content: "email?"},
		{Role: RoleUser, Content: " jane@example.com "},
	})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", last)
	require.Len(t, history, 3)
	assert.Equal(t, "model", history[0].Role)
	assert.Equal(t, "user", history[1].Role)
	assert.Equal(t, genai.Text("book a demo"), history[1].Parts[0])

	_, _, err = geminiHistory([]Message{{Role: RoleSystem, Content: "only"}})
	assert.Error(t, err)
}

type stubClient struct {
	resp  Response
	err   error
	calls int
}

func (s *stubClient) Complete(context.Context, Request) (Response, error) {
	s.calls++
	return s.resp, s.err
}

func TestFallbackClient(t *testing.T) {
	primary := &stubClient{err: errors.New("primary down")}
	fallback := &stubClient{resp: Response{Text: "from fallback"}}
	client := NewFallbackClient(primary, fallback, nil)

	resp, err := client.Complete(context.Background(), Request{Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.Equal(t, "from fallback", resp.Text)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)

	noFallback := NewFallbackClient(primary, nil, nil)
	_, err = noFallback.Complete(context.Background(), Request{})
	assert.ErrorContains(t, err, "primary down")

	bothDown := NewFallbackClient(primary, &stubClient{err: errors.New("fallback down")}, nil)
	_, err = bothDown.Complete(context.Background(), Request{})
	assert.ErrorContains(t, err, "fallback down")
}
