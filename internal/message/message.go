// Package message defines the content-block sum type and the Message
// envelope that the agent state machine, shell manager, and LLM client
// pass between each other.
package message

import (
	"fmt"
	"strings"

	"github.com/rgovind/neo/internal/framing"
)

// ContentBlock is one piece of a Message's content. Concrete types are
// TextBlock, CommandCallBlock, CommandResultBlock, and
// StructuredOutputBlock.
type ContentBlock interface {
	// ModelText renders the block the way it should appear in text sent
	// back to the model (escaped where the wire protocol requires it).
	ModelText() string
	// DisplayText renders the block for a human reading the transcript.
	DisplayText() string
	blockType() string
}

// TextBlock is free-form prose, either written by the model or injected
// by the agent (e.g. developer instructions).
type TextBlock struct {
	Text string
}

func (b TextBlock) ModelText() string   { return b.Text }
func (b TextBlock) DisplayText() string { return b.Text }
func (b TextBlock) blockType() string   { return "TextBlock" }

// CommandCallBlock holds the raw, unparsed command statement exactly as
// it appeared between COMMAND_START and COMMAND_END in the model's
// output (stdin payload included).
type CommandCallBlock struct {
	Content string
	Parsed  *ParsedCommand
}

func (b CommandCallBlock) ModelText() string   { return b.Content }
func (b CommandCallBlock) DisplayText() string { return b.Content }
func (b CommandCallBlock) blockType() string   { return "CommandCall" }

// ParsedCommand is the decoded form of a CommandCallBlock: a command
// name, its statement (the portion before any STDIN_SEPARATOR), and an
// optional stdin payload.
type ParsedCommand struct {
	Name      string
	Statement string
	Data      string
	HasData   bool
}

// CommandResultBlock is the outcome of executing a CommandCallBlock,
// framed with SUCCESS_PREFIX/ERROR_PREFIX and COMMAND_END and escaped
// per the framing package so the content can never be mistaken for a
// new command call by the model reading it back.
type CommandResultBlock struct {
	Content string
	Success bool
	// Err, when non-nil, is the Go error that produced this result. It
	// is never serialized (mirrors the original implementation, which
	// keeps the exception out of the persisted transcript).
	Err error
	// Output is the command's typed payload, if it has one (spec.md §3:
	// "commandOutput may carry a typed payload"). Nil for commands that
	// only report a text summary.
	Output CommandOutput
}

// CommandOutput is a command's optional typed result payload, carried
// alongside a CommandResultBlock's text summary. FileUpdate is the only
// concrete implementation write_file/update_file produce.
type CommandOutput interface {
	commandOutputType() string
}

// FileUpdate is write_file/update_file's typed CommandOutput: which
// command produced it, whether the file was newly created or
// overwritten, and a unified diff against its previous contents (empty
// before text for a newly created file, so the diff is all additions).
type FileUpdate struct {
	Name    string // the producing command's name, e.g. "write_file"
	Message string // "Created" or "Updated"
	Diff    string
}

func (FileUpdate) commandOutputType() string { return "FileUpdate" }

func (b CommandResultBlock) ModelText() string {
	prefix := framing.SuccessPrefix
	if !b.Success {
		prefix = framing.ErrorPrefix
	}
	return string(prefix) + framing.Escape(b.Content) + string(framing.CommandEnd)
}

func (b CommandResultBlock) DisplayText() string { return b.ModelText() }
func (b CommandResultBlock) blockType() string   { return "CommandResult" }

// StructuredOutputBlock is produced by the `output` command: it carries
// a parsed value in addition to its CommandResult framing, and a
// destination used to route it once the turn completes.
type StructuredOutputBlock struct {
	Content     string
	Value       any
	Destination string
}

func (b StructuredOutputBlock) ModelText() string {
	return string(framing.SuccessPrefix) + framing.Escape(b.Content) + string(framing.CommandEnd)
}
func (b StructuredOutputBlock) DisplayText() string { return b.ModelText() }
func (b StructuredOutputBlock) blockType() string   { return "StructuredOutput" }

// Role identifies the speaker of a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleDeveloper Role = "developer"
)

// Message is one turn of the conversation. Content is a slice of
// ContentBlock rather than a single string so that a single turn can
// carry prose, a command call, and the command's result side by side.
//
// Message is treated as immutable by the agent state machine: state
// transitions build new Message values rather than mutating existing
// ones in place, so that Machine.Step can hand back a prior State on
// failure without the caller having observed a partial update.
type Message struct {
	Role             Role
	Content          []ContentBlock
	Metadata         map[string]string
	AssistantPrefill string
}

// NewTextMessage builds a single-TextBlock message, the most common
// shape for user/developer turns.
func NewTextMessage(role Role, text string) Message {
	return Message{Role: role, Content: []ContentBlock{TextBlock{Text: text}}}
}

// WithMetadata returns a copy of m with metadata replaced.
func (m Message) WithMetadata(metadata map[string]string) Message {
	m.Metadata = metadata
	return m
}

// IsCheckpoint reports whether this message carries the checkpoint
// marker the agent state machine writes at its pruning boundaries.
func (m Message) IsCheckpoint() bool {
	return m.Metadata["is_checkpoint"] == "true"
}

// HasCommandCalls reports whether any block in this message is a
// CommandCallBlock.
func (m Message) HasCommandCalls() bool {
	for _, b := range m.Content {
		if _, ok := b.(CommandCallBlock); ok {
			return true
		}
	}
	return false
}

// CommandCalls returns every CommandCallBlock in this message, in
// order.
func (m Message) CommandCalls() []CommandCallBlock {
	var out []CommandCallBlock
	for _, b := range m.Content {
		if cc, ok := b.(CommandCallBlock); ok {
			out = append(out, cc)
		}
	}
	return out
}

// CommandResults returns every CommandResultBlock (including
// StructuredOutputBlock, which embeds the same framing) in this
// message, in order.
func (m Message) CommandResults() []ContentBlock {
	var out []ContentBlock
	for _, b := range m.Content {
		switch b.(type) {
		case CommandResultBlock, StructuredOutputBlock:
			out = append(out, b)
		}
	}
	return out
}

// StructuredOutput returns the first StructuredOutputBlock in this
// message, if any.
func (m Message) StructuredOutput() (StructuredOutputBlock, bool) {
	for _, b := range m.Content {
		if so, ok := b.(StructuredOutputBlock); ok {
			return so, true
		}
	}
	return StructuredOutputBlock{}, false
}

// ModelText concatenates every block's ModelText with newlines, the
// representation sent back to the model as conversation history.
func (m Message) ModelText() string {
	parts := make([]string, len(m.Content))
	for i, b := range m.Content {
		parts[i] = b.ModelText()
	}
	return strings.Join(parts, "\n")
}

// DisplayText concatenates every block's DisplayText with newlines, the
// representation shown to a human.
func (m Message) DisplayText() string {
	parts := make([]string, len(m.Content))
	for i, b := range m.Content {
		parts[i] = b.DisplayText()
	}
	return strings.Join(parts, "\n")
}

func (m Message) String() string {
	return fmt.Sprintf("[%s] %s", m.Role, m.DisplayText())
}

// AddContent returns a copy of m with block appended. It never mutates
// m's own Content slice.
func (m Message) AddContent(block ContentBlock) Message {
	content := make([]ContentBlock, len(m.Content), len(m.Content)+1)
	copy(content, m.Content)
	m.Content = append(content, block)
	return m
}
