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

package calling

import (
	"context"
	"path/filepath"

	"github.com/genoscale/varcall/callers"
	"github.com/genoscale/varcall/internal"
	"github.com/genoscale/varcall/region"
	"github.com/genoscale/varcall/sample"
)

// A Dispatcher resolves caller identifiers against a registry and runs one
// region of one work item at a time. The registry is read-only and shared;
// everything else a dispatch touches is private to that dispatch.
type Dispatcher struct {
	Registry *callers.Registry
	Phasing  callers.PhasingFn
}

func regionLabel(reg *region.Region) string {
	if reg == nil {
		return "whole file"
	}
	return reg.String()
}

// CallSample is the parallel entry point for genotyping one region of one
// sample. If outFile already exists, as a file or as a symbolic link, the
// computation is skipped and the record is only annotated, which makes
// re-running an already-complete dispatch a no-op. Otherwise the resolved
// backend is invoked with a private raw output path, optionally followed by
// read-backed phasing, and the finished call file is linked to outFile.
// Post-call filtration is a downstream concern and never runs here.
func (d *Dispatcher) CallSample(ctx context.Context, data *sample.Sample, reg *region.Region, outFile string) ([]*sample.Sample, error) {
	if outFile == "" {
		return nil, &MalformedSampleError{Sample: data.Name(), Reason: "no output file for variant calling"}
	}
	if !internal.FileExists(outFile) && !internal.LExists(outFile) {
		id := data.ActiveCaller()
		if id == "" {
			return nil, &MalformedSampleError{Sample: data.Name(), Reason: "no single variant caller resolved"}
		}
		callerFn, err := d.Registry.Resolve(id)
		if err != nil {
			return nil, err
		}
		// fail fast on broken records before spawning any external process
		if len(data.WorkBams) == 0 {
			return nil, &MalformedSampleError{Sample: data.Name(), Reason: "no aligned reads file"}
		}
		alignBams := data.WorkBams
		items := []*sample.Sample{data}
		if len(alignBams) > 1 || data.GroupOrig != nil {
			items = data.GroupOrig
			if len(items) == 0 {
				return nil, &MalformedSampleError{Sample: data.Name(), Reason: "batched sample without constituent records"}
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := internal.SafeMkdir(filepath.Dir(outFile)); err != nil {
			return nil, err
		}
		base, ext := internal.SplitextPlus(outFile)
		rawFile := base + "-raw" + ext
		callFile, err := callerFn(alignBams, items, data.SamRef, data.GenomeResources.Variation, reg, rawFile)
		if err != nil {
			return nil, &CallerExecutionError{Caller: id, Region: regionLabel(reg), Err: err}
		}
		if data.Config.Algorithm.Phasing == callers.PhasingGatk && d.Phasing != nil {
			callFile, err = d.Phasing(callFile, alignBams, data.SamRef, reg, data.Config)
			if err != nil {
				return nil, &CallerExecutionError{Caller: id, Region: regionLabel(reg), Err: err}
			}
		}
		if err := internal.SymlinkPlus(callFile, outFile); err != nil {
			return nil, err
		}
	}
	data.VrnFile = outFile
	return []*sample.Sample{data}, nil
}
