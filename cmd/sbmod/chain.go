// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"strings"

	"gitlab.com/tozd/go/errors"
)

// stages are the command names that start a new segment of a chain
var stages = map[string]bool{
	"prepare": true,
	"build":   true,
	"pack":    true,
	"clean":   true,
}

// valueFlags take the following argument as their value, so that argument is
// never read as a stage name
var valueFlags = map[string]bool{
	"--starbound":        true,
	"--modname":          true,
	"--build_dir":        true,
	"--config":           true,
	"-c":                 true,
	"--jobs":             true,
	"-j":                 true,
	"--missing-original": true,
	"--destination":      true,
	"-d":                 true,
	"--source":           true,
	"-s":                 true,
	"--mod":              true,
	"-m":                 true,
	"--out":              true,
	"-o":                 true,
}

// ⛓️ splitChain cuts argv into the global arguments before the first stage and
// one segment per stage, each starting with the stage name:
//
//	--starbound sb clean build -m mod pack --overwrite
//	=> [--starbound sb] [[clean] [build -m mod] [pack --overwrite]]
func splitChain(args []string) ([]string, [][]string, error) {
	var (
		globals  []string
		segments [][]string
	)

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch {
		case arg == "--":
			return nil, nil, errors.Errorf("unexpected argument %q", arg)
		case stages[arg]:
			segments = append(segments, []string{arg})
			continue
		case !strings.HasPrefix(arg, "-") && len(segments) == 0:
			return nil, nil, errors.Errorf("unknown stage %q (want prepare, build, pack or clean)", arg)
		}

		take := []string{arg}
		if valueFlags[arg] && i+1 < len(args) {
			take = append(take, args[i+1])
			i++
		}

		if len(segments) == 0 {
			globals = append(globals, take...)
		} else {
			last := len(segments) - 1
			segments[last] = append(segments[last], take...)
		}
	}

	return globals, segments, nil
}
