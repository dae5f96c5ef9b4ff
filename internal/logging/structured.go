package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rgovind/neo/internal/clock"
	"gopkg.in/yaml.v3"
)

// Field is one key/value pair in a structured log record. Fields are
// ordered as given rather than sorted, mirroring how the original
// implementation's logger accepts an ordered kwargs dict.
type Field struct {
	Key   string
	Value any
}

// F constructs a Field; it exists so call sites read like zap's own
// zap.String/zap.Int helpers despite carrying an untyped value.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// StructuredLogger appends YAML documents to a single per-session
// file, one document per Log call, separated by "---" (spec.md §6).
// Writes are serialized by mu so concurrent command executions never
// interleave a partial document.
type StructuredLogger struct {
	mu    sync.Mutex
	file  *os.File
	clock clock.Clock
}

// NewStructuredLogger opens (creating if necessary) <dir>/<name>.yaml
// for append, writing a header comment line the first time the file is
// created, and returns a logger bound to it.
func NewStructuredLogger(dir, name string, clk clock.Clock) (*StructuredLogger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("structured logger: %w", err)
	}
	path := filepath.Join(dir, name+".yaml")

	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("structured logger: open %s: %w", path, err)
	}
	if isNew {
		if _, err := f.WriteString(fmt.Sprintf("# %s structured log\n", name)); err != nil {
			f.Close()
			return nil, fmt.Errorf("structured logger: write header: %w", err)
		}
	}
	return &StructuredLogger{file: f, clock: clk}, nil
}

// Log appends one record: an ISO-8601 timestamp first, then fields in
// the order given, as a single "---"-delimited YAML document.
func (l *StructuredLogger) Log(fields ...Field) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	doc := &yaml.Node{Kind: yaml.MappingNode}
	appendPair(doc, "timestamp", l.clock.Now().UTC().Format(time.RFC3339))
	for _, f := range fields {
		appendPair(doc, f.Key, f.Value)
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("structured logger: marshal record: %w", err)
	}
	if _, err := l.file.WriteString("---\n" + string(out)); err != nil {
		return fmt.Errorf("structured logger: write record: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (l *StructuredLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

func appendPair(doc *yaml.Node, key string, value any) {
	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: key}
	if needsQuoting(key) {
		keyNode.Style = yaml.SingleQuotedStyle
	}
	doc.Content = append(doc.Content, keyNode, valueNode(value))
}

// valueNode encodes value as a YAML scalar or nested node, using
// block-scalar (literal) style for multi-line strings so they render
// as readable text rather than an escaped one-liner (spec.md §6).
func valueNode(value any) *yaml.Node {
	if s, ok := value.(string); ok && strings.Contains(s, "\n") {
		return &yaml.Node{Kind: yaml.ScalarNode, Value: s, Style: yaml.LiteralStyle}
	}
	n := &yaml.Node{}
	if err := n.Encode(value); err != nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Value: fmt.Sprintf("%v", value)}
	}
	return n
}

// yamlMetacharacters are the characters that make an unquoted scalar
// ambiguous as a YAML mapping key.
const yamlMetacharacters = ":#{}[],&*!|>'\"%@`"

func needsQuoting(key string) bool {
	if key == "" {
		return true
	}
	if strings.ContainsAny(key, yamlMetacharacters) {
		return true
	}
	switch key[0] {
	case '-', '?', ' ':
		return true
	}
	return false
}
