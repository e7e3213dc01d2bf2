package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"goscout/domain/core"
	"goscout/ports"
)

// StructuredClient provides typed JSON responses from generative calls. The
// transport is injected; this layer only owns prompt assembly and the decode
// discipline: a response either parses into T or the call fails with a typed
// error carrying a raw snippet for diagnosis.
type StructuredClient[T any] struct {
	llm     ports.LLMClient
	stage   string
	profile StageProfile
}

// NewStructuredClient creates a structured client for one stage.
func NewStructuredClient[T any](llm ports.LLMClient, stage string, profile StageProfile) *StructuredClient[T] {
	return &StructuredClient[T]{llm: llm, stage: stage, profile: profile}
}

// GetJSONResponse makes a generative call and parses the JSON body into T.
func (c *StructuredClient[T]) GetJSONResponse(ctx context.Context, prompt string) (*T, error) {
	log.Printf("[StructuredClient] %s: sending request, promptLength=%d", c.stage, len(prompt))

	content, err := c.llm.Complete(ctx, c.profile.SystemContext, []ports.ConversationTurn{
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s stage: %v", core.ErrGenerativeCall, c.stage, err)
	}

	log.Printf("[StructuredClient] %s: raw content length=%d", c.stage, len(content))

	cleaned := extractJSON(content)

	var result T
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		snippet := cleaned
		if len(snippet) > 300 {
			snippet = snippet[:300] + "..."
		}
		log.Printf("[StructuredClient] %s: failed to decode response: %v; snippet: %s", c.stage, err, snippet)
		return nil, core.NewMalformedResponseError(c.stage, fmt.Sprintf("%v (snippet: %s)", err, snippet))
	}

	return &result, nil
}

// extractJSON strips markdown fences and leading chatter so a well-formed
// JSON object or array embedded in the response body survives the decode.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	// Fenced block anywhere in the body wins
	if idx := strings.Index(content, "```"); idx >= 0 {
		rest := content[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		content = strings.TrimSpace(rest)
	}

	// Otherwise trim to the first opening brace/bracket
	objIdx := strings.IndexByte(content, '{')
	arrIdx := strings.IndexByte(content, '[')
	start := objIdx
	if start < 0 || (arrIdx >= 0 && arrIdx < start) {
		start = arrIdx
	}
	if start > 0 {
		content = content[start:]
	}

	// And back from the last closing one
	objEnd := strings.LastIndexByte(content, '}')
	arrEnd := strings.LastIndexByte(content, ']')
	end := objEnd
	if arrEnd > end {
		end = arrEnd
	}
	if end >= 0 && end < len(content)-1 {
		content = content[:end+1]
	}

	return strings.TrimSpace(content)
}
