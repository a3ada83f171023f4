package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChamsBouzaiene/chatagent/internal/engine"
)

func TestMockModel_Heuristics(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"name", "Hi, my name is Alice", "ACTION: Remember [profile: name is alice]"},
		{"preference", "I like green tea", "ACTION: Remember [preference: likes green tea]"},
		{"research", "Research quantum computing", "ACTION: DeepResearch [quantum computing]"},
		{"image", "draw a cat", "ACTION: ImageGen [a cat]"},
		{"image default prompt", "generate image", "ACTION: ImageGen [something amazing]"},
		{"search", "What is Python?", "ACTION: Search [what is python?]"},
		{"calculator", "what is 2 + 3 * 4?", "ACTION: Calculator [2 + 3 * 4]"},
		{"weather", "How is the weather in Paris?", "ACTION: Weather [Paris]"},
		{"weather default city", "weather please", "ACTION: Weather [Beijing]"},
		{"time", "What time is it?", "ACTION: DateTime [now]"},
		{"default", "hello there", MockIntroduction},
	}

	m := NewMockModel()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Generate(context.Background(), []engine.ChatMessage{
				{Role: engine.RoleSystem, Content: "system"},
				{Role: engine.RoleUser, Content: tt.input},
			}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMockModel_AnswersFromObservation(t *testing.T) {
	m := NewMockModel()
	got, err := m.Generate(context.Background(), []engine.ChatMessage{
		{Role: engine.RoleUser, Content: "What is Python?"},
		{Role: engine.RoleAssistant, Content: "ACTION: Search [python]"},
		{Role: engine.RoleSystem, Content: "Observation: [python.txt:1] Python is a programming language."},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Based on my research, [python.txt:1] Python is a programming language.... I hope that answers your question.", got)
}

func TestMockModel_TruncatesLongObservation(t *testing.T) {
	long := make([]rune, 300)
	for i := range long {
		long[i] = 'x'
	}
	m := NewMockModel()
	got, err := m.Generate(context.Background(), []engine.ChatMessage{
		{Role: engine.RoleSystem, Content: "Observation: " + string(long)},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Based on my research, "+string(long[:100])+"... I hope that answers your question.", got)
}

func TestMockModel_DrivesEngine(t *testing.T) {
	reg := engine.NewRegistry(engine.LastWriteWins, zeroLogger())
	require.NoError(t, reg.Register(engine.NewTool("Search", "Search docs.", func(_ context.Context, q string) (string, error) {
		return "[python.txt:1] Python is great", nil
	})))
	e, err := engine.NewBuilder().WithLLM(NewMockModel()).WithRegistry(reg).Build()
	require.NoError(t, err)

	reply := e.Chat(context.Background(), "Tell me about Python")
	assert.Equal(t, "Based on my research, [python.txt:1] Python is great... I hope that answers your question.", reply)
}

func TestMockModel_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMockModel().Generate(ctx, []engine.ChatMessage{{Role: engine.RoleUser, Content: "hi"}}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
