package broadcaster

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsoleSink_RendersKindAndSortedFields(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf)

	sink.Broadcast(Event{
		Kind:      KindBranchCreated,
		Timestamp: 1000,
		Fields:    map[string]any{"name": "feature-x", "branch_id": "abc"},
	})

	out := buf.String()
	assert.Contains(t, out, string(KindBranchCreated))
	assert.Contains(t, out, "branch_id=abc")
	assert.Contains(t, out, "name=feature-x")
}

func TestConsoleSink_NilWriterDiscards(t *testing.T) {
	sink := NewConsoleSink(nil)
	assert.NotPanics(t, func() {
		sink.Broadcast(Event{Kind: KindTaskTransition, Timestamp: 1})
	})
}

func TestConsoleSink_NoColorWhenNotATTY(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf)
	assert.False(t, sink.colorOutput)

	sink.Broadcast(Event{Kind: KindMergeRequestCompleted, Timestamp: 1})
	assert.NotContains(t, buf.String(), "\x1b[")
}
