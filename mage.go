//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	serverBin   = "./bin/server"
	certgenBin  = "./bin/certgen"
	configPath  = "configs/server.toml"
	certPath    = "cert.pem"
	keyPath     = "key.pem"
	coverageOut = "coverage.out"
)

const (
	toolsDir     = "tools/"
	toolsModfile = toolsDir + "go.mod"
	toolsBinDir  = toolsDir + "bin/"
	lintTool     = toolsBinDir + "golangci-lint"
)

func goModDownload() error {
	return sh.Run("go", "mod", "download")
}

// Build builds server binary
func Build() error {
	mg.Deps(goModDownload)
	return sh.Run("go", "build", "-o", serverBin, "./cmd")
}

// Run starts server
func Run() error {
	mg.Deps(Build)
	return sh.RunV(serverBin, "-config", configPath)
}

// Cert writes a self-signed certificate pair for local TLS.
func Cert() error {
	if err := sh.Run("go", "build", "-o", certgenBin, "./cmd/certgen"); err != nil {
		return err
	}
	return sh.RunV(certgenBin, "-cert", certPath, "-key", keyPath)
}

func Lint() error {
	mg.Deps(buildLintTool)
	return sh.Run(lintTool, "run", "./...")
}

func buildLintTool() error {
	return sh.Run(
		"go", "build",
		"-modfile", toolsModfile,
		"-o", lintTool,
		"github.com/golangci/golangci-lint/cmd/golangci-lint",
	)
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "-coverprofile", coverageOut, "./...")
}

// AutoTest runs the browser tests. Needs a local Chrome.
func AutoTest() error {
	mg.Deps(Test)
	return sh.RunV("go", "test", "-v", "-tags", "e2e", "-run", "TestBrowser", "./internal/web/...")
}
