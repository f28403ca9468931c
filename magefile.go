//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir  = "bin"
	binName = "vibe-genotype"
	cmdPkg  = "./cmd/vibe-genotype"
)

// Default target - build the binary
var Default = Build

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil {
		version = "dev"
	}
	commit, err := sh.Output("git", "rev-parse", "--short", "HEAD")
	if err != nil {
		commit = "none"
	}
	ldflags := fmt.Sprintf("-X main.version=%s -X main.commit=%s", version, commit)

	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Clean removes build artifacts.
func Clean() error {
	return os.RemoveAll(binDir)
}

type Test mg.Namespace

// All runs the unit tests.
func (Test) All() error {
	return sh.RunV("go", "test", "./...")
}

// Race runs the unit tests with the race detector.
func (Test) Race() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Coverage writes coverage.out and prints a per-function summary.
func (Test) Coverage() error {
	if err := sh.RunV("go", "test", "-coverprofile=coverage.out", "./..."); err != nil {
		return err
	}
	return sh.RunV("go", "tool", "cover", "-func=coverage.out")
}

type Lint mg.Namespace

// All runs all linters.
func (Lint) All() {
	mg.SerialDeps(Lint.Format, Lint.Vet)
}

// Format checks formatting.
func (Lint) Format() error {
	return sh.RunV("gofmt", "-l", "-d", ".")
}

// Vet runs go vet.
func (Lint) Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// QA runs lint and tests.
func QA() {
	mg.SerialDeps(Lint.All, Test.All)
}
