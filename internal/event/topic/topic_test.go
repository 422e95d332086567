package topic

import "testing"

func TestTopic_Matches(t *testing.T) {
	tests := []struct {
		topic   Topic
		pattern Topic
		want    bool
	}{
		{"workspace.file.open", "workspace.file.open", true},
		{"workspace.file.open", "workspace.file.menu", false},
		{"workspace.file.open", "workspace.file.*", true},
		{"workspace.file.open", "workspace.*", false},
		{"workspace.file.open", "workspace.**", true},
		{"workspace", "workspace.**", true},
		{"workspace.file.open", "**.open", true},
		{"workspace.file.open", "*.*.*", true},
		{"workspace.file", "*.*.*", false},
		{"", "", true},
	}

	for _, tt := range tests {
		if got := tt.topic.Matches(tt.pattern); got != tt.want {
			t.Errorf("%q.Matches(%q) = %v, want %v", tt.topic, tt.pattern, got, tt.want)
		}
	}
}

func TestTopic_IsValid(t *testing.T) {
	tests := []struct {
		topic Topic
		want  bool
	}{
		{"workspace.file.open", true},
		{"workspace", true},
		{"", false},
		{".workspace", false},
		{"workspace.", false},
		{"workspace..file", false},
	}

	for _, tt := range tests {
		if got := tt.topic.IsValid(); got != tt.want {
			t.Errorf("%q.IsValid() = %v, want %v", tt.topic, got, tt.want)
		}
	}
}

func TestTopic_IsWildcard(t *testing.T) {
	if Topic("workspace.file.open").IsWildcard() {
		t.Error("plain topic reported as wildcard")
	}
	if !Topic("workspace.*").IsWildcard() {
		t.Error("single wildcard not detected")
	}
	if !Topic("**").IsWildcard() {
		t.Error("multi wildcard not detected")
	}
}

func TestJoin(t *testing.T) {
	if got := Join("workspace", "file", "open"); got != "workspace.file.open" {
		t.Errorf("Join() = %q", got)
	}
}
