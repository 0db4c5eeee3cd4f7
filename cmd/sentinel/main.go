// Package main is the single-binary entrypoint for sentinel.
package main

import (
	"github.com/ztsentinel/sentinel/internal/cli"
	"github.com/ztsentinel/sentinel/internal/daemon"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	daemon.SetVersion(version)
	cli.Execute(version)
}
