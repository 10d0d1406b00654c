// Package testutil builds the test child program for package tests.
package testutil

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/sunlightlinux/procshim/internal/util"
)

// ChildPackage is the import path of the toy child program.
const ChildPackage = "github.com/sunlightlinux/procshim/cmd/testchild"

// BuildChild compiles the test child into a fresh temporary directory and
// returns the binary path and a cleanup function.
func BuildChild() (string, func(), error) {
	dir, err := os.MkdirTemp("", "procshim-child")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	path := filepath.Join(dir, util.ExecutableName("testchild"))
	cmd := exec.Command("go", "build", "-o", path, ChildPackage)
	if out, err := cmd.CombinedOutput(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to build test child: %v: %s", err, out)
	}
	return path, cleanup, nil
}

// MustBuildChild is BuildChild for TestMain: it panics on failure.
func MustBuildChild() (string, func()) {
	path, cleanup, err := BuildChild()
	if err != nil {
		panic(err.Error())
	}
	return path, cleanup
}
