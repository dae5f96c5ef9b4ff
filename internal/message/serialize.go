package message

import (
	"encoding/json"
	"fmt"
)

// wireBlock is the on-disk/JSON shape of a ContentBlock, shared across
// all four concrete types so a single struct can decode any of them
// before dispatching on Type.
type wireBlock struct {
	Type        string `json:"type"`
	Value       string `json:"value,omitempty"`
	Success     *bool  `json:"success,omitempty"`
	Content     string `json:"content,omitempty"`
	Value2      any    `json:"value_struct,omitempty"`
	Destination string `json:"destination,omitempty"`
}

// MarshalBlock converts a ContentBlock to its persisted JSON form.
// Mirrors the to_dict methods in the original implementation: a
// CommandResultBlock's error is intentionally never persisted.
func MarshalBlock(b ContentBlock) ([]byte, error) {
	switch v := b.(type) {
	case TextBlock:
		return json.Marshal(wireBlock{Type: "TextBlock", Value: v.Text})
	case CommandCallBlock:
		return json.Marshal(wireBlock{Type: "CommandCall", Value: v.Content})
	case CommandResultBlock:
		success := v.Success
		return json.Marshal(wireBlock{Type: "CommandResult", Value: v.Content, Success: &success})
	case StructuredOutputBlock:
		return json.Marshal(struct {
			Type        string `json:"type"`
			Content     string `json:"content"`
			Value       any    `json:"value"`
			Destination string `json:"destination"`
		}{Type: "StructuredOutput", Content: v.Content, Value: v.Value, Destination: v.Destination})
	default:
		return nil, fmt.Errorf("message: unknown content block type %T", b)
	}
}

// UnmarshalBlock decodes a persisted content block, dispatching on its
// "type" discriminator. An unrecognized type is an error rather than a
// silently-dropped block, since a truncated transcript would otherwise
// look like a short one.
func UnmarshalBlock(data []byte) (ContentBlock, error) {
	var w wireBlock
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	switch w.Type {
	case "", "TextBlock":
		return TextBlock{Text: w.Value}, nil
	case "CommandCall":
		return CommandCallBlock{Content: w.Value}, nil
	case "CommandResult":
		success := true
		if w.Success != nil {
			success = *w.Success
		}
		return CommandResultBlock{Content: w.Value, Success: success}, nil
	case "StructuredOutput":
		var so struct {
			Content     string `json:"content"`
			Value       any    `json:"value"`
			Destination string `json:"destination"`
		}
		if err := json.Unmarshal(data, &so); err != nil {
			return nil, err
		}
		return StructuredOutputBlock{Content: so.Content, Value: so.Value, Destination: so.Destination}, nil
	default:
		return nil, fmt.Errorf("message: unknown content block type %q", w.Type)
	}
}

// wireMessage is the persisted shape of a Message.
type wireMessage struct {
	Role             Role              `json:"role"`
	Content          []json.RawMessage `json:"content"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	AssistantPrefill string            `json:"assistant_prefill,omitempty"`
}

// MarshalJSON implements json.Marshaler so Message can be embedded
// directly in the agent's persisted state file.
func (m Message) MarshalJSON() ([]byte, error) {
	content := make([]json.RawMessage, len(m.Content))
	for i, b := range m.Content {
		raw, err := MarshalBlock(b)
		if err != nil {
			return nil, err
		}
		content[i] = raw
	}
	return json.Marshal(wireMessage{
		Role:             m.Role,
		Content:          content,
		Metadata:         m.Metadata,
		AssistantPrefill: m.AssistantPrefill,
	})
}

// UnmarshalJSON implements json.Unmarshaler, the inverse of
// MarshalJSON.
func (m *Message) UnmarshalJSON(data []byte) error {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	content := make([]ContentBlock, len(w.Content))
	for i, raw := range w.Content {
		b, err := UnmarshalBlock(raw)
		if err != nil {
			return err
		}
		content[i] = b
	}
	m.Role = w.Role
	m.Content = content
	m.Metadata = w.Metadata
	m.AssistantPrefill = w.AssistantPrefill
	return nil
}
