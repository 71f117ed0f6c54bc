package main

import (
	"github.com/grovetools/tend/pkg/assert"
	"github.com/grovetools/tend/pkg/command"
	"github.com/grovetools/tend/pkg/harness"
)

// VersionScenario tests the 'version' command.
func VersionScenario() *harness.Scenario {
	return &harness.Scenario{
		Name: "vigil-basic-version",
		Tags: []string{"vigil", "basic"},
		Steps: []harness.Step{
			harness.NewStep("Run 'vigil version'", func(ctx *harness.Context) error {
				vigilBinary, err := findVigilBinary()
				if err != nil {
					return err
				}

				cmd := command.New(vigilBinary, "version")
				result := cmd.Run()
				ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)

				if err := assert.Equal(0, result.ExitCode, "vigil version should exit successfully"); err != nil {
					return err
				}
				if err := assert.Contains(result.Stdout, "Version:", "Output should contain Version"); err != nil {
					return err
				}
				return assert.Contains(result.Stdout, "Commit:", "Output should contain Commit")
			}),
		},
	}
}

// SignaturesScenario checks that the built-in table is listed.
func SignaturesScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "vigil-basic-signatures",
		Description: "Lists the built-in stall signatures without any configuration file.",
		Tags:        []string{"vigil", "basic"},
		Steps: []harness.Step{
			harness.NewStep("Run 'vigil signatures'", func(ctx *harness.Context) error {
				vigilBinary, err := findVigilBinary()
				if err != nil {
					return err
				}

				workDir := ctx.NewDir("empty")
				cmd := ctx.Command(vigilBinary, "signatures").Dir(workDir)
				result := cmd.Run()
				ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)

				if err := assert.Equal(0, result.ExitCode, "signatures should exit successfully"); err != nil {
					return err
				}
				if err := assert.Contains(result.Stdout, "destructive-confirmation", "escalating signature should be listed"); err != nil {
					return err
				}
				return assert.Contains(result.Stdout, "yes-no-prompt", "yes/no signature should be listed")
			}),
		},
	}
}
