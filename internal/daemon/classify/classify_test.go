package classify

import (
	"testing"

	"github.com/grovetools/agentwatch/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		record string
		want   Match
		ok     bool
	}{
		{
			name:   "multi-line thoughts",
			record: "✨ Bob's thoughts: I should check the file\nand then continue",
			want:   Match{Kind: KindThoughts, Agent: "Bob", Body: "I should check the file\nand then continue"},
			ok:     true,
		},
		{
			name:   "thoughts body is trimmed",
			record: "2025-01-02 10:00:00 | INFO | Manus's thoughts:   plan  \n",
			want:   Match{Kind: KindThoughts, Agent: "Manus", Body: "plan"},
			ok:     true,
		},
		{
			name:   "agent name with spaces",
			record: "✨ Data Analyst's thoughts: plan",
			want:   Match{Kind: KindThoughts, Agent: "Data Analyst", Body: "plan"},
			ok:     true,
		},
		{
			name:   "agent name after loguru header",
			record: "2025-01-02 10:00:00.123 | INFO     | app.agent:step:42 - ✨ Code Reviewer's thoughts: look at main.go",
			want:   Match{Kind: KindThoughts, Agent: "Code Reviewer", Body: "look at main.go"},
			ok:     true,
		},
		{
			name:   "activating tool",
			record: "🔧 Activating tool: 'search'",
			want:   Match{Kind: KindActivatingTool, Tool: "search"},
			ok:     true,
		},
		{
			name:   "tool arguments",
			record: `🔧 Tool arguments: {"query": "go"}`,
			want:   Match{Kind: KindToolArgs, Body: `{"query": "go"}`},
			ok:     true,
		},
		{
			name:   "token usage",
			record: "📊 Token usage: Input=10, Completion=5",
			want:   Match{Kind: KindTokenUsage, Body: "Input=10, Completion=5"},
			ok:     true,
		},
		{
			name:   "tool result",
			record: "🎯 Tool 'bash' completed its mission! Result: ok",
			want:   Match{Kind: KindToolResult, Tool: "bash", Body: "ok"},
			ok:     true,
		},
		{
			name:   "tool arguments stop at end of line",
			record: "Tool arguments: a\nb",
			want:   Match{Kind: KindToolArgs, Body: "a"},
			ok:     true,
		},
		{
			name:   "unmatched",
			record: "Connecting to model endpoint",
		},
		{
			name:   "empty",
			record: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(tt.record)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchEvent(t *testing.T) {
	tests := []struct {
		match Match
		want  models.Event
	}{
		{Match{Kind: KindThoughts, Agent: "Bob", Body: "b"}, models.AgentThoughtsEvent("b")},
		{Match{Kind: KindToolArgs, Body: "a"}, models.ToolArgsEvent("a")},
		{Match{Kind: KindTokenUsage, Body: "u"}, models.TokenUsageEvent("u")},
		{Match{Kind: KindActivatingTool, Tool: "search"}, models.ActivatingToolEvent("search")},
		{Match{Kind: KindToolResult, Tool: "bash", Body: "ok"}, models.ToolResultEvent("bash", "ok")},
	}
	for _, tt := range tests {
		t.Run(tt.match.Kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.match.Event())
		})
	}
}

func TestAssembler(t *testing.T) {
	var a Assembler
	var records []string

	records = append(records, a.Feed("starting up")...)
	records = append(records, a.Feed("✨ Bob's thoughts: first line")...)
	assert.True(t, a.Pending())
	records = append(records, a.Feed("second line")...)
	records = append(records, a.Feed("")...)
	records = append(records, a.Feed("third line")...)
	records = append(records, a.Feed("🔧 Activating tool: 'search'")...)
	assert.False(t, a.Pending())

	require.Equal(t, []string{
		"starting up",
		"✨ Bob's thoughts: first line\nsecond line\n\nthird line",
		"🔧 Activating tool: 'search'",
	}, records)

	m, ok := Classify(records[1])
	require.True(t, ok)
	assert.Equal(t, "first line\nsecond line\n\nthird line", m.Body)
}

func TestAssemblerHeaderEndsThoughts(t *testing.T) {
	var a Assembler
	assert.Empty(t, a.Feed("Bob's thoughts: x"))
	assert.Equal(t, []string{"Bob's thoughts: x", "2025-01-02 10:00:01 | INFO | next"},
		a.Feed("2025-01-02 10:00:01 | INFO | next"))
	assert.Equal(t, []string{"plain"}, a.Feed("plain"))
	assert.Equal(t, []string{"level=info msg=x"}, a.Feed("level=info msg=x"))
	assert.Nil(t, a.Flush())
}

func TestDecodeRecord(t *testing.T) {
	tests := []struct {
		line string
		want string
		ok   bool
	}{
		{line: `{"level":"info","msg":"Token usage: 5","time":"now"}`, want: "Token usage: 5", ok: true},
		{line: `{"message":"Bob's thoughts: a\nb"}`, want: "Bob's thoughts: a\nb", ok: true},
		{line: `{"text":"...","record":{"message":"Activating tool: 'x'"}}`, want: "Activating tool: 'x'", ok: true},
		{line: `{"level":"info"}`},
		{line: `not json`},
		{line: `{"msg":`},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := DecodeRecord(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
