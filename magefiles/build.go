// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build mage

// Package main provides build targets for nameward using Mage.
//
// Usage:
//
//	mage build        Compile nameward to bin/
//	mage test:all     Run all tests
//	mage test:unit    Run all tests quietly
//	mage test:race    Run all tests with the race detector
//	mage test:cover   Write a coverage profile to bin/cover.out
//	mage lint         Run golangci-lint
//	mage generate     Regenerate mocks
//	mage clean        Remove build artifacts
//	mage install      Install nameward to GOPATH/bin
//	mage stats        Print Go lines of code per package
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "nameward"
	binaryDir  = "bin"
	cmdDir     = "./cmd/nameward"
	versionVar = "github.com/mesh-intelligence/nameward/internal/cli.Version"
)

// Build compiles the nameward binary to bin/. NAMEWARD_VERSION, when set,
// is stamped into the version command.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	args := []string{"build", "-v", "-o", filepath.Join(binaryDir, binaryName)}
	if v := os.Getenv("NAMEWARD_VERSION"); v != "" {
		args = append(args, "-ldflags", "-X "+versionVar+"="+v)
	}
	return sh.RunV(binGo, append(args, cmdDir)...)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}

// Generate regenerates the gomock doubles.
func Generate() error {
	return sh.RunV(binGo, "generate", "./...")
}
