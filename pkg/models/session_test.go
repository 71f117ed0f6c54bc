package models

import "testing"

func TestTrackedProject_SessionID(t *testing.T) {
	if got := (TrackedProject{Name: "api"}).SessionID(); got != "api" {
		t.Errorf("SessionID() = %q, want api", got)
	}
	if got := (TrackedProject{Name: "api", Session: "agent-api"}).SessionID(); got != "agent-api" {
		t.Errorf("SessionID() = %q, want agent-api", got)
	}
}

func TestPaneSnapshot_Empty(t *testing.T) {
	var nilSnap *PaneSnapshot
	if !nilSnap.Empty() {
		t.Error("nil snapshot should be empty")
	}
	if !(&PaneSnapshot{Lines: []string{"", "   ", "\t"}}).Empty() {
		t.Error("whitespace-only snapshot should be empty")
	}
	if (&PaneSnapshot{Lines: []string{"", "$ make"}}).Empty() {
		t.Error("snapshot with text should not be empty")
	}
}

func TestStallSignature_Matches(t *testing.T) {
	tests := []struct {
		name string
		sig  StallSignature
		line string
		want bool
	}{
		{"literal hit", StallSignature{Pattern: "Do you want to proceed?"}, "  Do you want to proceed? (y/n)", true},
		{"literal is case sensitive", StallSignature{Pattern: "Continue?"}, "continue?", false},
		{"literal treats regex metacharacters as text", StallSignature{Pattern: "(y/n)"}, "overwrite (y/n)", true},
		{"empty pattern never matches", StallSignature{Pattern: ""}, "anything", false},
		{"regex hit", StallSignature{Pattern: `\[[Yy]/[Nn]\]`, Regex: true}, "Apply changes? [Y/n]", true},
		{"regex miss", StallSignature{Pattern: `^Press Enter`, Regex: true}, "  Press Enter", false},
		{"invalid regex never matches", StallSignature{Pattern: `(`, Regex: true}, "(", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sig.Matches(tt.line); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestStallSignature_Compile(t *testing.T) {
	sig := StallSignature{Label: "bad", Pattern: `(unclosed`, Regex: true}
	if err := sig.Compile(); err == nil {
		t.Error("expected compile error for invalid regex")
	}

	sig = StallSignature{Label: "ok", Pattern: `press (enter|return)`, Regex: true}
	if err := sig.Compile(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sig.Matches("press return to continue") {
		t.Error("compiled signature should match")
	}

	literal := StallSignature{Label: "lit", Pattern: `(unclosed`}
	if err := literal.Compile(); err != nil {
		t.Errorf("literal signatures should not fail to compile: %v", err)
	}
}
