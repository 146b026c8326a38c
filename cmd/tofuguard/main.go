// Copyright (c) The Tofuguard Authors
// SPDX-License-Identifier: MPL-2.0

// tofuguard scans a configuration directory against a directory of YAML
// policy checks and reports a verdict per check and construct.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mitchellh/colorstring"
	"github.com/spf13/afero"

	"github.com/tofuguard/tofuguard/internal/configload"
	"github.com/tofuguard/tofuguard/internal/logging"
	"github.com/tofuguard/tofuguard/internal/policy"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	var configDir, checksDir string
	var noColor bool
	flag.StringVar(&configDir, "config-dir", ".", "directory holding the configuration to scan")
	flag.StringVar(&checksDir, "checks-dir", "", "directory holding YAML check documents")
	flag.BoolVar(&noColor, "no-color", false, "disable colorized output")
	flag.Parse()

	if checksDir == "" {
		fmt.Fprintln(os.Stderr, "tofuguard: -checks-dir is required")
		return 2
	}

	logger := logging.HCLogger()
	color := &colorstring.Colorize{Colors: colorstring.DefaultColors, Disable: noColor}
	fs := afero.NewOsFs()

	checks, err := policy.LoadChecksDir(fs, checksDir)
	if err != nil {
		// Invalid documents are skipped, not fatal; say so and scan with
		// what loaded.
		logger.Warn("some check documents failed to load", "error", err)
	}
	if len(checks) == 0 {
		fmt.Fprintln(os.Stderr, "tofuguard: no usable checks found")
		return 2
	}

	vertices, err := configload.NewParser(fs).LoadDir(configDir)
	if err != nil {
		logger.Warn("some configuration files failed to load", "error", err)
	}
	if len(vertices) == 0 {
		fmt.Fprintln(os.Stderr, "tofuguard: no constructs found to scan")
		return 2
	}

	failed := 0
	for _, check := range checks {
		for _, v := range vertices {
			status, err := check.Run(v)
			if err != nil {
				logger.Warn("check evaluation error", "check", check.ID, "vertex", v.Name, "error", err)
				continue
			}
			switch status {
			case policy.StatusPassed:
				fmt.Println(color.Color(fmt.Sprintf("[green]PASS[reset]  %s  %s", check.ID, v)))
			case policy.StatusFailed:
				failed++
				fmt.Println(color.Color(fmt.Sprintf("[red]FAIL[reset]  %s  %s  (%s)", check.ID, v, check.Name)))
			}
		}
	}

	if failed > 0 {
		fmt.Println(color.Color(fmt.Sprintf("\n[red]%d check result(s) failed[reset]", failed)))
		return 1
	}
	fmt.Println(color.Color("\n[green]All checks passed[reset]"))
	return 0
}
