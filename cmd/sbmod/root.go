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
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/walteh/sbmod/cmd/sbmod/commands"
	"github.com/walteh/sbmod/cmd/sbmod/opts"
	"github.com/walteh/sbmod/pkg/config"
)

// rootFlags are bound fresh for every segment and folded into the shared
// options afterwards, so a flag given in one segment is never reset by another
type rootFlags struct {
	cfg        config.Config
	configFile string
	debug      bool
}

// newRootCmd creates the command tree for one segment of a chain
func newRootCmd(o *opts.RootOpts, stdout, stderr io.Writer) *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   "sbmod [flags] STAGE [stage flags] [STAGE [stage flags]...]",
		Short: "Build Starbound mods as JSON patches",
		Long: `sbmod turns a directory of modified game assets into a mod.

Stages run in the order given and the chain stops at the first failure:
  prepare  unpack the stock assets
  build    write patches for .config files and copy everything else
  pack     pack the build directory into a .pak archive
  clean    remove the build directory

Every global flag can also be set with a BUILDER_ environment variable
(BUILDER_STARBOUND, BUILDER_BUILD_DIR, ...) or in an sbmod.yaml, .hcl,
.toml or .json project file.`,
		Version:       FormatVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			o.Flags = o.Flags.Merge(flags.cfg)
			if flags.configFile != "" {
				o.ConfigFile = flags.configFile
			}
			o.Debug = o.Debug || flags.debug
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetVersionTemplate("{{.Version}}")

	addRootFlags(cmd, &flags)

	cmd.AddCommand(
		commands.NewPrepareCmd(o),
		commands.NewBuildCmd(o),
		commands.NewPackCmd(o),
		commands.NewCleanCmd(o),
	)

	return cmd
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, flags *rootFlags) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.cfg.Starbound, "starbound", "", "Starbound installation directory (required)")
	pf.StringVar(&flags.cfg.ModName, "modname", "", "name of the packed mod (default modcontent)")
	pf.StringVar(&flags.cfg.BuildDir, "build_dir", "", "build directory (default out/)")
	pf.StringVarP(&flags.configFile, "config", "c", "", "project file (default sbmod.{yaml,yml,hcl,toml,json} when present)")
	pf.IntVarP(&flags.cfg.Jobs, "jobs", "j", 0, "files staged in parallel (default GOMAXPROCS)")
	pf.StringVar(&flags.cfg.MissingOriginal, "missing-original", "", "what to do with a config that has no original: fail or copy (default fail)")
	pf.BoolVar(&flags.debug, "debug", false, "enable debug logging")
}

// setupLogging configures zerolog based on flags
func setupLogging(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}
