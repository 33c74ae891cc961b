// Package classify turns agent log records into typed session events.
package classify

import (
	"regexp"
	"strings"

	"github.com/grovetools/agentwatch/pkg/models"
)

// Kind is the type of a classified record.
type Kind int

const (
	KindThoughts Kind = iota + 1
	KindToolArgs
	KindTokenUsage
	KindActivatingTool
	KindToolResult
)

func (k Kind) String() string {
	switch k {
	case KindThoughts:
		return "thoughts"
	case KindToolArgs:
		return "tool_args"
	case KindTokenUsage:
		return "token_usage"
	case KindActivatingTool:
		return "activating_tool"
	case KindToolResult:
		return "tool_result"
	default:
		return "unknown"
	}
}

// Match is a classified record.
type Match struct {
	Kind Kind
	// Agent is set for KindThoughts.
	Agent string
	// Tool is set for KindActivatingTool and KindToolResult.
	Tool string
	// Body is the thoughts, arguments, usage or result text.
	Body string
}

// Event converts the match to the event observers receive.
func (m Match) Event() models.Event {
	switch m.Kind {
	case KindThoughts:
		return models.AgentThoughtsEvent(m.Body)
	case KindToolArgs:
		return models.ToolArgsEvent(m.Body)
	case KindTokenUsage:
		return models.TokenUsageEvent(m.Body)
	case KindActivatingTool:
		return models.ActivatingToolEvent(m.Tool)
	default:
		return models.ToolResultEvent(m.Tool, m.Body)
	}
}

type rule struct {
	pattern *regexp.Regexp
	build   func(groups []string) Match
}

// rules are tried in order; the first match wins. Patterns are searched
// for anywhere in the record, so emoji markers and log headers may precede
// them.
var rules = []rule{
	{
		// A log header ending in "| " or " - " and any marker characters
		// before the agent name are skipped; the name itself may contain spaces.
		pattern: regexp.MustCompile(`(?s)^(?:[^\n]*(?:\| | - ))?[^\p{L}\p{N}\n]*([^\n]+?)'s thoughts: (.+)$`),
		build: func(g []string) Match {
			return Match{Kind: KindThoughts, Agent: g[1], Body: strings.TrimSpace(g[2])}
		},
	},
	{
		pattern: regexp.MustCompile(`Tool arguments: (.+)`),
		build: func(g []string) Match {
			return Match{Kind: KindToolArgs, Body: g[1]}
		},
	},
	{
		pattern: regexp.MustCompile(`Token usage: (.+)`),
		build: func(g []string) Match {
			return Match{Kind: KindTokenUsage, Body: g[1]}
		},
	},
	{
		pattern: regexp.MustCompile(`Activating tool: '(.+)'`),
		build: func(g []string) Match {
			return Match{Kind: KindActivatingTool, Tool: g[1]}
		},
	},
	{
		pattern: regexp.MustCompile(`Tool '(.+)' completed its mission! Result: (.+)`),
		build: func(g []string) Match {
			return Match{Kind: KindToolResult, Tool: g[1], Body: g[2]}
		},
	},
}

// Classify reports the first pattern matching record. Records that match
// nothing return false.
func Classify(record string) (Match, bool) {
	for _, r := range rules {
		if groups := r.pattern.FindStringSubmatch(record); groups != nil {
			return r.build(groups), true
		}
	}
	return Match{}, false
}

// StartsRecord reports whether line begins a new record rather than
// continuing the previous one.
func StartsRecord(line string) bool {
	if headerPattern.MatchString(line) {
		return true
	}
	for _, r := range rules {
		if r.pattern.MatchString(line) {
			return true
		}
	}
	return false
}

var headerPattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}[ T]\d{2}:\d{2}|time=|level=|\[?(TRACE|DEBUG|INFO|WARN|WARNING|ERROR|FATAL)\b)`)
