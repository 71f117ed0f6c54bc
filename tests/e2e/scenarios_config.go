package main

import (
	"fmt"
	"path/filepath"

	"github.com/grovetools/tend/pkg/assert"
	"github.com/grovetools/tend/pkg/fs"
	"github.com/grovetools/tend/pkg/harness"
)

// ConfigValidationScenario checks that an invalid setting aborts the run
// with exit code 2 before anything is written.
func ConfigValidationScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "vigil-config-validation",
		Description: "An out-of-range setting is a configuration error: exit 2, no report.",
		Tags:        []string{"vigil", "config"},
		Steps: []harness.Step{
			harness.NewStep("Run with workers out of range", func(ctx *harness.Context) error {
				vigilBinary, err := findVigilBinary()
				if err != nil {
					return err
				}

				workDir := ctx.NewDir("work")
				reportsDir := filepath.Join(workDir, "reports")
				cfgPath, err := writeConfig(workDir, reportsDir, [][2]string{{"alpha", workDir}}, "workers: 500\n")
				if err != nil {
					return err
				}

				cmd := ctx.Command(vigilBinary, "run", "--config", cfgPath).Dir(workDir)
				result := cmd.Run()
				ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)

				if err := assert.Equal(2, result.ExitCode, "configuration errors exit 2"); err != nil {
					return err
				}
				if err := assert.Contains(result.Stderr, "workers", "error should name the field"); err != nil {
					return err
				}
				if exists, _ := filepath.Glob(filepath.Join(reportsDir, "*.json")); len(exists) != 0 {
					return fmt.Errorf("no report should be written, found %v", exists)
				}
				return nil
			}),
		},
	}
}

// ConfigMissingScenario checks an explicit --config that does not exist.
func ConfigMissingScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "vigil-config-missing",
		Description: "Naming a config file that does not exist exits 2.",
		Tags:        []string{"vigil", "config"},
		Steps: []harness.Step{
			harness.NewStep("Run with a missing --config", func(ctx *harness.Context) error {
				vigilBinary, err := findVigilBinary()
				if err != nil {
					return err
				}

				workDir := ctx.NewDir("work")
				cmd := ctx.Command(vigilBinary, "run", "--config", filepath.Join(workDir, "absent.yml")).Dir(workDir)
				result := cmd.Run()
				ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)

				return assert.Equal(2, result.ExitCode, "missing config exits 2")
			}),
		},
	}
}

// ConfigLayeringScenario checks that the global config and a project
// override merge into the effective configuration.
func ConfigLayeringScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "vigil-config-layering",
		Description: "Global, project and override configs merge in order.",
		Tags:        []string{"vigil", "config"},
		Steps: []harness.Step{
			harness.NewStep("Setup layered configuration and show it", func(ctx *harness.Context) error {
				vigilBinary, err := findVigilBinary()
				if err != nil {
					return err
				}

				globalDir := filepath.Join(ctx.HomeDir(), ".config", "vigil")
				if err := fs.CreateDir(globalDir); err != nil {
					return fmt.Errorf("failed to create global config dir: %w", err)
				}
				if err := fs.WriteString(filepath.Join(globalDir, "vigil.yml"), "workers: 8\nrecovery:\n  max_attempts: 5\n"); err != nil {
					return err
				}

				projectDir := ctx.NewDir("project")
				if err := fs.WriteString(filepath.Join(projectDir, "vigil.yml"), "targets:\n  - name: alpha\n    path: .\nrecovery:\n  max_attempts: 2\n"); err != nil {
					return err
				}
				if err := fs.WriteString(filepath.Join(projectDir, "vigil.override.yml"), "workers: 2\n"); err != nil {
					return err
				}

				// ctx.Command automatically uses the sandboxed HOME directory.
				cmd := ctx.Command(vigilBinary, "config", "show").Dir(projectDir)
				result := cmd.Run()
				ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)
				if result.Error != nil {
					return fmt.Errorf("`vigil config show` failed: %w", result.Error)
				}

				if err := assert.Contains(result.Stdout, "workers: 2", "override should win"); err != nil {
					return err
				}
				if err := assert.Contains(result.Stdout, "max_attempts: 2", "project should override global"); err != nil {
					return err
				}
				return assert.Contains(result.Stdout, "name: alpha", "project targets should be present")
			}),
		},
	}
}
