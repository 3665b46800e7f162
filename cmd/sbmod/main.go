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
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/sbmod/cmd/sbmod/opts"
	"github.com/walteh/sbmod/pkg/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	wd, err := os.Getwd()
	if err != nil {
		pterm.Error.WithPrefix(pterm.Prefix{Text: "❌"}).Println("cannot determine working directory")
		pterm.Error.Println(err)
		os.Exit(1)
	}

	if err := loadDotEnv(wd); err != nil {
		pterm.Warning.WithPrefix(pterm.Prefix{Text: "⚠️"}).Println(err.Error())
	}

	if err := run(ctx, os.Args[1:], opts.New(wd), os.Stdout, os.Stderr); err != nil {
		pterm.Error.WithPrefix(pterm.Prefix{Text: "❌"}).Println("sbmod failed")
		pterm.Error.Println(err)
		stop()
		os.Exit(1)
	}
}

// loadDotEnv loads dir/.env when present. Variables already in the
// environment win over the file.
func loadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// run parses every segment of the chain, resolves the configuration once and
// then executes the planned stages in order
func run(ctx context.Context, args []string, o *opts.RootOpts, stdout, stderr io.Writer) error {
	globals, segments, err := splitChain(args)
	if err != nil {
		return err
	}
	if len(segments) == 0 {
		segments = [][]string{nil}
	}

	for _, segment := range segments {
		cmd := newRootCmd(o, stdout, stderr)
		cmd.SetArgs(append(append([]string{}, globals...), segment...))
		if err := cmd.ExecuteContext(ctx); err != nil {
			return err
		}
	}

	if len(o.Plan.Steps()) == 0 {
		return nil
	}

	zlog := setupLogging(o.Debug)
	ctx = zlog.WithContext(ctx)
	logger := log.New(stdout, zlog)
	ctx = log.NewContext(ctx, logger)

	if _, _, err := o.Operator(ctx); err != nil {
		return err
	}

	logger.Header("running " + strings.Join(o.Plan.Steps(), " → "))
	if err := o.Plan.Run(ctx); err != nil {
		return err
	}
	logger.LogNewline()
	logger.Success("done")
	return nil
}
