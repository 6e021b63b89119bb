// varCall: a tool for parallel multi-caller variant calling.
// Copyright (c) 2024-2026 Genoscale Labs.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/genoscale/varcall/blob/master/LICENSE.txt>.

package cmd

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/genoscale/varcall/callers"
	"github.com/genoscale/varcall/calling"
	"github.com/genoscale/varcall/internal"
	"github.com/genoscale/varcall/runner"
	"github.com/genoscale/varcall/sample"
)

// CallHelp is the help string for this command.
const CallHelp = "Call parameters:\n" +
	"varcall call sample-sheet.yaml /path/to/work/\n" +
	"[--nr-of-threads nr]\n" +
	"[--log-path path]\n"

// Call implements the varcall call command.
func Call() error {
	var (
		logPath     string
		nrOfThreads int
	)

	var flags flag.FlagSet

	flags.IntVar(&nrOfThreads, "nr-of-threads", 0, "number of worker threads")
	flags.StringVar(&logPath, "log-path", "", "directory for the log file")

	if len(os.Args) < 4 {
		fmt.Fprintln(os.Stderr, "Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, CallHelp)
		os.Exit(1)
	}

	sheet := getFilename(os.Args[2], CallHelp)
	workDir := getFilename(os.Args[3], CallHelp)

	if err := flags.Parse(os.Args[4:]); err != nil {
		x := 0
		if err != flag.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
			x = 1
		}
		fmt.Fprint(os.Stderr, CallHelp)
		os.Exit(x)
	}

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist("", sheet) {
		sanityChecksFailed = true
	}

	if nrOfThreads < 0 {
		sanityChecksFailed = true
		log.Println("Error: Invalid nr-of-threads: ", nrOfThreads)
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, CallHelp)
		os.Exit(1)
	}

	// building output command line

	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " call ", sheet, " ", workDir)
	if nrOfThreads > 0 {
		runtime.GOMAXPROCS(nrOfThreads)
		fmt.Fprint(&command, " --nr-of-threads ", nrOfThreads)
	}
	if logPath != "" {
		fmt.Fprint(&command, " --log-path ", logPath)
	}

	setLogOutput(logPath)

	// executing command

	log.Println("Executing command:\n", command.String())

	fullWorkDir, err := internal.FullPathname(workDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(fullWorkDir, 0700); err != nil {
		return err
	}

	samples, err := sample.LoadSampleSheet(sheet, fullWorkDir)
	if err != nil {
		return err
	}

	cfg, err := runner.ConfigFromEnv()
	if err != nil {
		return err
	}
	eng := runner.NewLocal(cfg)
	dispatcher := &calling.Dispatcher{
		Registry: callers.Builtin(),
		Phasing:  callers.ReadBackedPhasing,
	}
	calling.RegisterOps(eng, dispatcher)

	called, err := calling.ParallelVariantCallRegion(context.Background(), samples, eng)
	if err != nil {
		return err
	}

	// post-calling filtration on the whole-sample call files
	for _, item := range called {
		data := item[0]
		if data.VrnFile == "" {
			continue
		}
		filtered, err := callers.VariantFiltration(data.VrnFile, data.SamRef, data.GenomeResources.Variation, data.ActiveCaller())
		if err != nil {
			return err
		}
		data.VrnFile = filtered
	}

	grouped := calling.CombineMultipleCallers(called)

	for _, item := range grouped {
		data := item[0]
		if len(data.Variants) == 0 {
			log.Printf("%v: no variant calls", data.Name())
			continue
		}
		for _, variant := range data.Variants {
			log.Printf("%v: %v -> %v", data.Name(), variant.VariantCaller, variant.VrnFile)
		}
	}
	return nil
}
