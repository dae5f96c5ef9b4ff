package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rgovind/neo/internal/command"
	"github.com/rgovind/neo/internal/framing"
	"github.com/rgovind/neo/internal/message"
)

// maxValidationRetries bounds how many extra requests Process will send
// to get back a batch of command calls that all validate, mirroring the
// original implementation's `if num_requests > 3: return response`.
const maxValidationRetries = 3

// Validator is the subset of command.Registry that Process needs: it
// is expressed as an interface so this package doesn't import
// internal/commands' concrete command set.
type Validator interface {
	ValidateCalls(calls []message.CommandCallBlock) []command.ValidationOutcome
}

// Process sends messages to the model and returns its reply as a
// Message whose content is already split into Text/CommandCall blocks,
// retrying up to maxValidationRetries times if the model's command
// calls fail validation (command.client.Client.process in the
// original).
func (c *Client) Process(ctx context.Context, messages []message.Message, model string, validator Validator) (message.Message, error) {
	toSend := applyCacheControl(messages)
	numRequests := 0

	for {
		reply, err := c.processOnce(ctx, toSend, model)
		if err != nil {
			return message.Message{}, err
		}
		numRequests++

		calls := reply.CommandCalls()
		if len(calls) == 0 {
			return reply, nil
		}
		if numRequests > maxValidationRetries {
			return reply, nil
		}

		outcomes := validator.ValidateCalls(calls)
		failures := make([]message.ContentBlock, 0)
		numValid := 0
		for _, o := range outcomes {
			if o.Err != nil {
				failures = append(failures, message.CommandResultBlock{Content: o.Err.Error(), Success: false, Err: o.Err})
			} else {
				numValid++
			}
		}

		if len(failures) == 0 {
			return attachParsedCommands(reply), nil
		}

		correction := "Commands are not valid. Correct them."
		if numValid > 0 {
			correction += fmt.Sprintf("\n%d were valid but have not been executed. Send them again too.", numValid)
		}
		correctionMsg := message.Message{
			Role:    message.RoleUser,
			Content: append(append([]message.ContentBlock{}, failures...), message.TextBlock{Text: correction}),
		}

		toSend = applyCacheControl(append(append([]message.Message{}, messages...), reply, correctionMsg))
	}
}

// attachParsedCommands fills in CommandCallBlock.Parsed for every
// command call in msg, now that validation has confirmed each parses
// cleanly.
func attachParsedCommands(msg message.Message) message.Message {
	content := make([]message.ContentBlock, len(msg.Content))
	for i, b := range msg.Content {
		cc, ok := b.(message.CommandCallBlock)
		if !ok {
			content[i] = b
			continue
		}
		parsed, err := command.ParseBlock(cc.Content)
		if err != nil {
			content[i] = b
			continue
		}
		cc.Parsed = &parsed
		content[i] = cc
	}
	msg.Content = content
	return msg
}

// applyCacheControl marks the last message, and the third-from-last if
// present, as cacheable, matching Client.process's prompt-cache
// placement (the two spots least likely to change turn-to-turn).
func applyCacheControl(messages []message.Message) []message.Message {
	out := make([]message.Message, len(messages))
	for i, m := range messages {
		metadata := make(map[string]string, len(m.Metadata)+1)
		for k, v := range m.Metadata {
			metadata[k] = v
		}
		metadata["cache-control"] = "false"
		m.Metadata = metadata
		out[i] = m
	}
	if n := len(out); n > 0 {
		out[n-1].Metadata["cache-control"] = "true"
		if n >= 3 {
			out[n-3].Metadata["cache-control"] = "true"
		}
	}
	return out
}

// processOnce builds the wire request for one turn, sends it, and
// post-processes the reply into framed content blocks.
func (c *Client) processOnce(ctx context.Context, messages []message.Message, model string) (message.Message, error) {
	wireMsgs, assistantPrefill := preprocess(messages)

	wireReply, _, _, err := c.rawRequest(ctx, model, wireMsgs, []string{string(framing.SuccessPrefix), string(framing.ErrorPrefix)})
	if err != nil {
		return message.Message{}, err
	}

	return postprocess(wireReply.text(), assistantPrefill), nil
}

// preprocess turns the session's Message history into wire messages:
// the system message passes through unchanged, developer messages are
// wrapped in <SYSTEM>...</SYSTEM> and sent with the user role (neither
// OpenAI nor Anthropic have a "developer" role in the chat-completions
// shape this client targets), and every other message's blocks are
// flattened to a single text part carrying that message's cache-control
// flag. If the final message carries an AssistantPrefill, a trailing
// assistant wire message is appended with that text so the model
// continues from it.
func preprocess(messages []message.Message) ([]wireMessage, string) {
	out := make([]wireMessage, 0, len(messages)+1)
	var assistantPrefill string

	for i, m := range messages {
		role := string(m.Role)
		prefix, suffix := "", ""
		if m.Role == message.RoleDeveloper {
			role = "user"
			prefix, suffix = "<SYSTEM>", "</SYSTEM>"
		}

		text := prefix + m.ModelText() + suffix
		block := wireBlock{Type: "text", Text: text}
		if m.Metadata["cache-control"] == "true" {
			block.CacheControl = ephemeralCache
		}
		out = append(out, wireMessage{Role: role, Content: []wireBlock{block}})

		if i == len(messages)-1 && m.Role != message.RoleAssistant && m.AssistantPrefill != "" {
			assistantPrefill = m.AssistantPrefill
		}
	}

	if assistantPrefill != "" {
		out = append(out, wireMessage{Role: "assistant", Content: []wireBlock{{Type: "text", Text: assistantPrefill}}})
	}

	return out, assistantPrefill
}

// postprocess turns the model's raw text reply into a Message of
// Text/CommandCall blocks: it prepends any assistant_prefill, truncates
// at the first COMMAND_END (the stop sequence only fires on
// SUCCESS_PREFIX/ERROR_PREFIX, so a reply can still run past the end of
// a command call the model hallucinated a result for), and splits the
// remaining text at every CommandStart/CommandEnd boundary.
func postprocess(text string, assistantPrefill string) message.Message {
	full := assistantPrefill + text

	if idx := strings.IndexRune(full, framing.CommandEnd); idx >= 0 {
		full = full[:idx+len(string(framing.CommandEnd))]
	}

	var blocks []message.ContentBlock
	var buf strings.Builder
	prevWasEnd := false

	flush := func() {
		s := buf.String()
		if strings.TrimSpace(s) == "" {
			buf.Reset()
			return
		}
		if strings.HasPrefix(s, string(framing.CommandStart)) {
			blocks = append(blocks, message.CommandCallBlock{Content: s})
		} else {
			blocks = append(blocks, message.TextBlock{Text: s})
		}
		buf.Reset()
	}

	for _, r := range full {
		if r == framing.CommandStart || prevWasEnd {
			flush()
		}
		buf.WriteRune(r)
		prevWasEnd = r == framing.CommandEnd
	}
	flush()

	return message.Message{Role: message.RoleAssistant, Content: blocks}
}
