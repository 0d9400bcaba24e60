package help

import (
	"strings"
	"testing"
)

func TestQUICKREFNonEmpty(t *testing.T) {
	if len(QUICKREF) == 0 {
		t.Fatal("QUICKREF is empty")
	}
}

func TestQUICKREFContainsVersion(t *testing.T) {
	if !strings.Contains(QUICKREF, "v0.1") {
		t.Error("QUICKREF does not contain version string v0.1")
	}
}

func TestQUICKREFListsTopics(t *testing.T) {
	for _, topic := range TopicList {
		if !strings.Contains(QUICKREF, topic) {
			t.Errorf("QUICKREF does not mention topic %q", topic)
		}
	}
}

func TestTopicListMatchesTopics(t *testing.T) {
	for _, name := range TopicList {
		if _, ok := Topics[name]; !ok {
			t.Errorf("TopicList entry %q not in Topics map", name)
		}
	}
	if len(Topics) != len(TopicList) {
		t.Errorf("expected %d topics, got %d", len(TopicList), len(Topics))
	}
}

func TestTopicsNonEmpty(t *testing.T) {
	for name, content := range Topics {
		if len(content) == 0 {
			t.Errorf("topic %q has empty content", name)
		}
	}
}

func TestMatchTopicExact(t *testing.T) {
	name, content, err := MatchTopic("syntax")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "syntax" {
		t.Errorf("expected name 'syntax', got %q", name)
	}
	if content == "" {
		t.Error("expected non-empty content")
	}
}

func TestMatchTopicPrefix(t *testing.T) {
	tests := map[string]string{
		"err":   "errors",
		"ex":    "examples",
		"SCOPE": "scoping",
		" ty ":  "types",
	}
	for query, want := range tests {
		name, _, err := MatchTopic(query)
		if err != nil {
			t.Errorf("MatchTopic(%q) error: %v", query, err)
			continue
		}
		if name != want {
			t.Errorf("MatchTopic(%q) = %q, want %q", query, name, want)
		}
	}
}

func TestMatchTopicAmbiguous(t *testing.T) {
	// "s" matches syntax and scoping.
	_, _, err := MatchTopic("s")
	if err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Errorf("expected ambiguous error, got %v", err)
	}
}

func TestMatchTopicUnknown(t *testing.T) {
	for _, q := range []string{"nonexistent", "", "stdlib"} {
		if _, _, err := MatchTopic(q); err == nil {
			t.Errorf("expected error for %q", q)
		}
	}
}

func TestOperatorIndex(t *testing.T) {
	idx := OperatorIndex()
	if !strings.Contains(idx, "Total: 6 levels") {
		t.Errorf("OperatorIndex should report 6 levels, got:\n%s", idx)
	}
	eq := strings.Index(idx, "==")
	mul := strings.Index(idx, "*")
	if eq < 0 || mul < 0 || eq > mul {
		t.Errorf("equality should be listed before factor:\n%s", idx)
	}
}

func TestMatchTopicAllExact(t *testing.T) {
	for _, topic := range TopicList {
		name, content, err := MatchTopic(topic)
		if err != nil {
			t.Errorf("MatchTopic(%q) error: %v", topic, err)
			continue
		}
		if name != topic {
			t.Errorf("MatchTopic(%q) returned name %q", topic, name)
		}
		if content == "" {
			t.Errorf("MatchTopic(%q) returned empty content", topic)
		}
	}
}

func TestErrorsTopicExplainsFlatChainDepth(t *testing.T) {
	content := Topics["errors"]
	if !strings.Contains(content, "flat") || !strings.Contains(content, "max_depth") {
		t.Errorf("errors topic should explain depth limits on flat chains:\n%s", content)
	}
}
