package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goscout/domain/core"
	"goscout/ports"
)

type scriptedLLM struct {
	response string
	err      error
	system   string
}

func (s *scriptedLLM) Complete(_ context.Context, systemContext string, _ []ports.ConversationTurn) (string, error) {
	s.system = systemContext
	return s.response, s.err
}

type verdict struct {
	Decision string `json:"decision"`
	Score    int    `json:"score"`
}

func TestGetJSONResponseDecodesCleanJSON(t *testing.T) {
	llm := &scriptedLLM{response: `{"decision": "go", "score": 7}`}
	client := NewStructuredClient[verdict](llm, "scoring", DefaultProfiles()["scoring"])

	got, err := client.GetJSONResponse(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "go", got.Decision)
	assert.Equal(t, 7, got.Score)
	assert.NotEmpty(t, llm.system)
}

func TestGetJSONResponseStripsFencesAndChatter(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"fenced", "```json\n{\"decision\": \"go\", \"score\": 7}\n```"},
		{"fenced no lang", "```\n{\"decision\": \"go\", \"score\": 7}\n```"},
		{"leading chatter", "Sure, here is the JSON:\n{\"decision\": \"go\", \"score\": 7}"},
		{"trailing chatter", "{\"decision\": \"go\", \"score\": 7}\nLet me know if you need anything else."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &scriptedLLM{response: tt.response}
			client := NewStructuredClient[verdict](llm, "scoring", StageProfile{})
			got, err := client.GetJSONResponse(context.Background(), "prompt")
			require.NoError(t, err)
			assert.Equal(t, "go", got.Decision)
		})
	}
}

func TestGetJSONResponseTransportError(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("connection refused")}
	client := NewStructuredClient[verdict](llm, "validation", StageProfile{})

	_, err := client.GetJSONResponse(context.Background(), "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrGenerativeCall)
}

func TestGetJSONResponseMalformedBody(t *testing.T) {
	llm := &scriptedLLM{response: "I cannot produce JSON today."}
	client := NewStructuredClient[verdict](llm, "critique", StageProfile{})

	_, err := client.GetJSONResponse(context.Background(), "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMalformedResponse)
	assert.Contains(t, err.Error(), "critique")
}
