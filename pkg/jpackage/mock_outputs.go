package jpackage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bundlesmith/bundlesmith/pkg/runner"
)

// SimulateOutputs wraps a MockRunner handler so that jpackage calls write
// placeholder files where the real tool would: <dest>/<name>/ for an app
// image, <dest>/<name>-<version>.<type> for msi/exe/dmg, and
// jpackage-style names for deb and rpm. Other commands go to next, or
// succeed when next is nil.
func SimulateOutputs(next runner.HandlerFunc) runner.HandlerFunc {
	return func(name string, args []string) (*runner.Result, error) {
		if name != "jpackage" {
			if next == nil {
				return &runner.Result{}, nil
			}
			return next(name, args)
		}

		flags := map[string]string{}
		for i := 0; i+1 < len(args); i++ {
			if strings.HasPrefix(args[i], "--") {
				flags[args[i]] = args[i+1]
			}
		}
		dest, appName, version := flags["--dest"], flags["--name"], flags["--app-version"]

		var out string
		switch t := flags["--type"]; t {
		case "app-image":
			launcher := filepath.Join(dest, appName, "bin", appName)
			if err := os.MkdirAll(filepath.Dir(launcher), 0755); err != nil {
				return nil, err
			}
			return &runner.Result{}, os.WriteFile(launcher, []byte("#!/bin/sh\n"), 0755)
		case "deb":
			out = fmt.Sprintf("%s_%s-1_amd64.deb", strings.ToLower(appName), version)
		case "rpm":
			out = fmt.Sprintf("%s-%s-1.x86_64.rpm", strings.ToLower(appName), version)
		default:
			out = fmt.Sprintf("%s-%s.%s", appName, version, t)
		}

		if err := os.MkdirAll(dest, 0755); err != nil {
			return nil, err
		}
		return &runner.Result{}, os.WriteFile(filepath.Join(dest, out), []byte("installer"), 0644)
	}
}
