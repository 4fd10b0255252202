package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/noah-isme/surveyhustler-api/pkg/config"
)

func TestNewGeminiClientRequiresKey(t *testing.T) {
	client, err := NewGeminiClient(context.Background(), config.AIConfig{})
	require.Error(t, err)
	assert.Nil(t, client)
}

func TestBuildContentsMapsRoles(t *testing.T) {
	contents := buildContents(Prompt{
		History: []Turn{
			{Role: "user", Text: "how many responses?"},
			{Role: "assistant", Text: "twelve"},
			{Role: "Model", Text: "anything else?"},
		},
		Text: "which course answered most?",
	})

	require.Len(t, contents, 4)
	assert.Equal(t, string(genai.RoleUser), contents[0].Role)
	assert.Equal(t, string(genai.RoleModel), contents[1].Role)
	assert.Equal(t, string(genai.RoleModel), contents[2].Role)
	assert.Equal(t, string(genai.RoleUser), contents[3].Role)
	assert.Equal(t, "which course answered most?", contents[3].Parts[0].Text)
}
