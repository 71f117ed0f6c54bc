package main

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/grovetools/tend/pkg/fs"
	"github.com/grovetools/tend/pkg/git"
	"github.com/grovetools/tend/pkg/harness"
)

// findVigilBinary finds the vigil binary under test.
// It relies on the Makefile setting the PATH to include the local ./bin directory.
func findVigilBinary() (string, error) {
	path, err := exec.LookPath("vigil")
	if err != nil {
		return "", fmt.Errorf("could not find 'vigil' binary in PATH. Ensure 'make test-e2e' is used")
	}
	return path, nil
}

// setupProject creates a committed git repository named name in the sandbox.
func setupProject(ctx *harness.Context, name string) (string, error) {
	dir := ctx.NewDir(name)
	if err := fs.WriteString(filepath.Join(dir, "README.md"), "# "+name+"\n"); err != nil {
		return "", err
	}
	repo, err := git.SetupTestRepo(dir)
	if err != nil {
		return "", err
	}
	if err := repo.AddCommit("initial commit"); err != nil {
		return "", err
	}
	return dir, nil
}

// writeConfig writes a vigil.yml whose reports land in reportsDir. targets
// maps project names to paths.
func writeConfig(dir, reportsDir string, targets [][2]string, extra string) (string, error) {
	var b strings.Builder
	b.WriteString("version: \"1.0\"\ntargets:\n")
	for _, t := range targets {
		fmt.Fprintf(&b, "  - name: %s\n    path: %s\n", t[0], t[1])
	}
	fmt.Fprintf(&b, "reports:\n  dir: %s\nnotify:\n  channels:\n    - type: log\n", reportsDir)
	b.WriteString(extra)

	path := filepath.Join(dir, "vigil.yml")
	if err := fs.WriteString(path, b.String()); err != nil {
		return "", err
	}
	return path, nil
}
