package monitor

import (
	"fmt"

	"github.com/grovetools/vigil/errors"
	"github.com/grovetools/vigil/pkg/models"
)

// Phases lists what a run mode executes.
type Phases struct {
	Classify bool // sample and classify every session
	Verify   bool // inspect every repository
	Recover  bool // recover stalled sessions and escalate the rest
	Oracle   bool // consult the status oracle, when one is configured
	Persist  bool // write the report to the store
}

var modeTable = map[models.RunMode]Phases{
	models.ModeFull:         {Classify: true, Verify: true, Recover: true, Oracle: true, Persist: true},
	// quick verifies too: a report is never excellent without repository
	// ground truth. It skips recovery and the oracle.
	models.ModeQuick:        {Classify: true, Verify: true, Persist: true},
	models.ModeVerifyOnly:   {Verify: true, Persist: true},
	models.ModeRecoveryOnly: {Classify: true, Recover: true},
}

// PhasesFor returns the handler row for mode.
func PhasesFor(mode models.RunMode) (Phases, error) {
	phases, ok := modeTable[mode]
	if !ok {
		return Phases{}, errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("unknown run mode '%s'", mode)).
			WithDetail("mode", string(mode))
	}
	return phases, nil
}
