package monitor

import (
	"testing"
	"time"

	"github.com/grovetools/vigil/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(lines ...string) *models.PaneSnapshot {
	return &models.PaneSnapshot{SessionID: "api", CapturedAt: time.Unix(0, 0), Lines: lines}
}

func TestClassifyApprovalPrompt(t *testing.T) {
	signatures := []models.StallSignature{{Pattern: "Do you want to proceed?", Label: "approval-prompt"}}

	result := Classify(snapshot("Do you want to proceed?"), signatures)

	assert.Equal(t, models.StateStalled, result.State)
	require.NotNil(t, result.MatchedSignature)
	assert.Equal(t, "approval-prompt", result.MatchedSignature.Label)
	assert.Equal(t, []string{"Do you want to proceed?"}, result.Evidence)
}

func TestClassifyIsDeterministic(t *testing.T) {
	signatures := DefaultSignatures()
	snap := snapshot(approvalScreen...)

	first := Classify(snap, signatures)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(snap, signatures))
	}
}

func TestClassifyFirstSignatureWins(t *testing.T) {
	signatures := []models.StallSignature{
		{Label: "first", Pattern: "proceed"},
		{Label: "second", Pattern: "Do you want"},
	}
	// The line matching "second" comes earlier in the pane; table order
	// still decides.
	result := Classify(snapshot("Do you want to...", "...proceed?"), signatures)
	require.NotNil(t, result.MatchedSignature)
	assert.Equal(t, "first", result.MatchedSignature.Label)

	reversed := []models.StallSignature{signatures[1], signatures[0]}
	result = Classify(snapshot("Do you want to...", "...proceed?"), reversed)
	assert.Equal(t, "second", result.MatchedSignature.Label)
}

func TestClassifyNeverActiveWithoutContent(t *testing.T) {
	signatures := DefaultSignatures()

	tests := []struct {
		name string
		snap *models.PaneSnapshot
	}{
		{"nil snapshot", nil},
		{"no lines", snapshot()},
		{"blank lines", snapshot("", "   ", "\t")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Classify(tt.snap, signatures)
			assert.Equal(t, models.StateUnknown, result.State)
			assert.Nil(t, result.MatchedSignature)
		})
	}
}

func TestClassifyActive(t *testing.T) {
	result := Classify(snapshot(activeScreen...), DefaultSignatures())
	assert.Equal(t, models.StateActive, result.State)
	assert.Nil(t, result.MatchedSignature)
	assert.Equal(t, activeScreen, result.Evidence)
}

func TestEvidenceKeepsLastThreeNonEmptyLines(t *testing.T) {
	got := evidence([]string{"one", "two", "", "three", "  ", "four", ""})
	assert.Equal(t, []string{"two", "three", "four"}, got)
}

func TestClassifyRegexSignature(t *testing.T) {
	signatures := []models.StallSignature{{Label: "yn", Pattern: `\(y/n\)\s*$`, Regex: true}}
	require.NoError(t, signatures[0].Compile())

	assert.Equal(t, models.StateStalled, Classify(snapshot("Overwrite config? (y/n) "), signatures).State)
	assert.Equal(t, models.StateActive, Classify(snapshot("echo '(y/n) prompt removed'"), signatures).State)
}

func TestDefaultSignatures(t *testing.T) {
	signatures, err := CompileSignatures(nil, false)
	require.NoError(t, err)

	tests := []struct {
		line  string
		label string
	}{
		{"Do you want to proceed?", "approval-prompt"},
		{"Do you want to make this edit to main.go?", "approval-prompt"},
		{"❯ 1. Yes", "approval-menu"},
		{"Do you trust the files in this folder?", "trust-folder"},
		{"Continue with install? [y/N]", "yes-no-prompt"},
		{"Overwrite existing file? (y/n)", "yes-no-prompt"},
		{"Press Enter to continue", "press-enter"},
		{"This action cannot be undone. Continue? (y/n)", "destructive-confirmation"},
		{"Type 'delete' to confirm", "destructive-confirmation"},
		{"Claude usage limit reached. Your limit will reset at 5pm", "rate-limited"},
		{"All 42 tests passed", ""},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			result := Classify(snapshot(tt.line), signatures)
			if tt.label == "" {
				assert.Equal(t, models.StateActive, result.State)
				return
			}
			require.NotNil(t, result.MatchedSignature, "expected %s", tt.label)
			assert.Equal(t, tt.label, result.MatchedSignature.Label)
		})
	}

	for _, sig := range signatures {
		if sig.Label == "destructive-confirmation" {
			assert.True(t, sig.Escalate, "destructive prompts must never be answered")
		}
	}
}

func TestCompileSignatures(t *testing.T) {
	custom := []models.StallSignature{
		{Label: "menu", Pattern: `Select an option`, Fallbacks: []string{"1"}},
		{Label: "press-enter", Pattern: "Hit return"},
	}

	table, err := CompileSignatures(custom, false)
	require.NoError(t, err)
	assert.Equal(t, "menu", table[0].Label)
	assert.Equal(t, "press-enter", table[1].Label)
	assert.Equal(t, "Hit return", table[1].Pattern, "custom signature shadows the default label")

	labels := map[string]int{}
	for _, sig := range table {
		labels[sig.Label]++
	}
	assert.Equal(t, 1, labels["press-enter"])

	table, err = CompileSignatures(custom, true)
	require.NoError(t, err)
	assert.Len(t, table, 2)

	_, err = CompileSignatures([]models.StallSignature{{Label: "bad", Pattern: "(", Regex: true}}, true)
	require.Error(t, err)

	_, err = CompileSignatures(nil, true)
	require.Error(t, err)
}
