package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// messagesOnlyAgent rejects every payload shape except the messages dict,
// mimicking a picky collaborator.
type messagesOnlyAgent struct {
	calls int
}

func (a *messagesOnlyAgent) Invoke(_ context.Context, payload any) (any, error) {
	a.calls++
	dict, ok := payload.(map[string]any)
	if !ok {
		return nil, errors.New("raw payload rejected")
	}
	if _, ok := dict["messages"]; !ok {
		return nil, errors.New("input payload rejected")
	}
	return "generated text", nil
}

type failingAgent struct {
	calls int
}

func (a *failingAgent) Invoke(context.Context, any) (any, error) {
	a.calls++
	return nil, errors.New("backend unavailable")
}

type slowAgent struct{}

func (slowAgent) Invoke(ctx context.Context, _ any) (any, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestInvokeWithRetry_LearnsShapeOnFirstSuccess(t *testing.T) {
	backend := &messagesOnlyAgent{}
	rt := NewRuntime(backend, nil)
	require.Equal(t, ShapeUnknown, rt.Shape())

	text, err := rt.InvokeWithRetry(context.Background(), "prompt", 1, time.Second, "")
	require.NoError(t, err)
	assert.Equal(t, "generated text", text)
	assert.Equal(t, ShapeMessages, rt.Shape())
	// One probe per candidate shape: raw, input, messages.
	assert.Equal(t, 3, backend.calls)
}

func TestInvokeWithRetry_CachedShapeSkipsProbing(t *testing.T) {
	backend := &messagesOnlyAgent{}
	rt := NewRuntime(backend, nil)

	_, err := rt.InvokeWithRetry(context.Background(), "first", 1, time.Second, "")
	require.NoError(t, err)
	callsAfterFirst := backend.calls

	_, err = rt.InvokeWithRetry(context.Background(), "second", 1, time.Second, "")
	require.NoError(t, err)
	assert.Equal(t, callsAfterFirst+1, backend.calls)
}

func TestInvokeWithRetry_ExhaustsRetriesAndWrapsLastError(t *testing.T) {
	backend := &failingAgent{}
	rt := NewRuntime(backend, nil)

	_, err := rt.InvokeWithRetry(context.Background(), "prompt", 2, time.Second, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Contains(t, err.Error(), "backend unavailable")
	assert.Equal(t, ShapeUnknown, rt.Shape())
	// Two attempts, each probing all three shapes.
	assert.Equal(t, 6, backend.calls)
}

func TestInvokeWithRetry_TimeoutDoesNotBlockTheRun(t *testing.T) {
	rt := NewRuntime(slowAgent{}, nil)

	started := time.Now()
	_, err := rt.InvokeWithRetry(context.Background(), "prompt", 1, 30*time.Millisecond, "")
	elapsed := time.Since(started)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, elapsed, 5*time.Second)
}

func TestNextShape_WriteOnce(t *testing.T) {
	assert.Equal(t, ShapeRaw, NextShape(ShapeUnknown, ShapeRaw, true))
	assert.Equal(t, ShapeUnknown, NextShape(ShapeUnknown, ShapeRaw, false))
	assert.Equal(t, ShapeInput, NextShape(ShapeInput, ShapeMessages, true))
	assert.Equal(t, ShapeInput, NextShape(ShapeInput, ShapeMessages, false))
}

func TestBuildPayload_Shapes(t *testing.T) {
	assert.Equal(t, "p", BuildPayload(ShapeRaw, "p"))
	assert.Equal(t, map[string]any{"input": "p"}, BuildPayload(ShapeInput, "p"))

	messages, ok := BuildPayload(ShapeMessages, "p").(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []Message{{Role: "user", Content: "p"}}, messages["messages"])
}

func TestPayloadShapeString(t *testing.T) {
	assert.Equal(t, "raw-string", ShapeRaw.String())
	assert.Equal(t, "input-dict", ShapeInput.String())
	assert.Equal(t, "messages-dict", ShapeMessages.String())
	assert.Equal(t, "unknown", ShapeUnknown.String())
}

type fixedCarrier struct {
	content any
}

func (c fixedCarrier) Content() any { return c.content }

func TestResponseText_NormalizationRules(t *testing.T) {
	cases := []struct {
		name     string
		response any
		want     string
	}{
		{"plain string", "hello", "hello"},
		{"output key", map[string]any{"output": "out"}, "out"},
		{"content key", map[string]any{"content": "body"}, "body"},
		{"messages recurse last", map[string]any{"messages": []any{
			map[string]any{"content": "first"},
			map[string]any{"content": "last"},
		}}, "last"},
		{"carrier string", fixedCarrier{content: "carried"}, "carried"},
		{"carrier string slice", fixedCarrier{content: []string{"a", "b"}}, "a\nb"},
		{"carrier text parts", fixedCarrier{content: []any{
			map[string]any{"text": "part one"},
			map[string]any{"text": "part two"},
		}}, "part one\npart two"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResponseText(tc.response))
		})
	}
}

func TestResponseText_StructuredFallbackIsJSON(t *testing.T) {
	got := ResponseText(map[string]any{"unexpected": 1})
	assert.JSONEq(t, `{"unexpected": 1}`, got)
}

func TestPromptFromPayload_AcceptsAllShapes(t *testing.T) {
	for _, shape := range []PayloadShape{ShapeRaw, ShapeInput, ShapeMessages} {
		prompt, err := PromptFromPayload(BuildPayload(shape, "the prompt"))
		require.NoError(t, err, shape.String())
		assert.Equal(t, "the prompt", prompt, shape.String())
	}

	_, err := PromptFromPayload(42)
	require.Error(t, err)
	assert.Contains(t, fmt.Sprint(err), "payload")
}
