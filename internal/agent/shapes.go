package agent

// Message is one turn of a messages-shaped payload.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// PayloadShape identifies which request shape a generation collaborator
// accepts. The shape is learned on the first successful call and cached for
// the rest of the run.
type PayloadShape int

const (
	ShapeUnknown PayloadShape = iota
	ShapeRaw
	ShapeInput
	ShapeMessages
)

func (s PayloadShape) String() string {
	switch s {
	case ShapeRaw:
		return "raw-string"
	case ShapeInput:
		return "input-dict"
	case ShapeMessages:
		return "messages-dict"
	default:
		return "unknown"
	}
}

// probeOrder is the fixed candidate list tried while the shape is unknown.
var probeOrder = []PayloadShape{ShapeRaw, ShapeInput, ShapeMessages}

// BuildPayload renders a prompt in the given shape.
func BuildPayload(shape PayloadShape, prompt string) any {
	switch shape {
	case ShapeInput:
		return map[string]any{"input": prompt}
	case ShapeMessages:
		return map[string]any{"messages": []Message{{Role: "user", Content: prompt}}}
	default:
		return prompt
	}
}

// NextShape is the shape-learning decision function: given the cached shape,
// the shape just attempted, and whether the attempt succeeded, it returns the
// shape to cache. Once a shape is known it never changes.
func NextShape(current, attempted PayloadShape, succeeded bool) PayloadShape {
	if current != ShapeUnknown {
		return current
	}
	if succeeded {
		return attempted
	}
	return ShapeUnknown
}
