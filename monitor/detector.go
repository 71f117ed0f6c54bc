package monitor

import (
	"strings"

	"github.com/grovetools/vigil/pkg/models"
)

// evidenceLines is how many trailing non-empty lines a classification keeps.
const evidenceLines = 3

// Classify is the stall detector. It is pure: the same snapshot and table
// always give the same result. Signatures are tried in order and the first
// one matching any line wins. A nil or blank snapshot is unknown, never active.
func Classify(snapshot *models.PaneSnapshot, signatures []models.StallSignature) models.ClassificationResult {
	result := models.ClassificationResult{State: models.StateUnknown}
	if snapshot == nil {
		return result
	}
	result.SessionID = snapshot.SessionID

	if snapshot.Empty() {
		result.Error = "no visible content"
		return result
	}
	result.Evidence = evidence(snapshot.Lines)

	for i := range signatures {
		sig := &signatures[i]
		for _, line := range snapshot.Lines {
			if sig.Matches(line) {
				matched := *sig
				result.State = models.StateStalled
				result.MatchedSignature = &matched
				return result
			}
		}
	}

	result.State = models.StateActive
	return result
}

func evidence(lines []string) []string {
	var out []string
	for i := len(lines) - 1; i >= 0 && len(out) < evidenceLines; i-- {
		if line := strings.TrimRight(lines[i], " \t"); strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// unknownResult records a unit that could not be classified.
func unknownResult(sessionID, reason string) models.ClassificationResult {
	return models.ClassificationResult{
		SessionID: sessionID,
		State:     models.StateUnknown,
		Error:     reason,
	}
}
