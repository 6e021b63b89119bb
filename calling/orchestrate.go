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

	"github.com/genoscale/varcall/runner"
	"github.com/genoscale/varcall/sample"
	"github.com/genoscale/varcall/vcf"
)

// Operation names registered with the execution engine.
const (
	OpVariantCallSample  = "variantcall_sample"
	OpConcatVariantFiles = "concat_variant_files"
)

// CallFileExt is the extension of the call files this pipeline produces.
const CallFileExt = ".vcf.gz"

// callerDirExt names the per-caller output subdirectory of a work item.
func callerDirExt(data *sample.Sample) string {
	if id := data.ActiveCaller(); id != "" {
		return id
	}
	return sample.DefaultCaller
}

// RegisterOps wires the calling operations into a local engine under their
// operation names.
func RegisterOps(eng *runner.Local, d *Dispatcher) {
	eng.RegisterDispatch(OpVariantCallSample, d.CallSample)
	eng.RegisterCombine(OpConcatVariantFiles, func(outFile string, parts []runner.Part, _ *sample.Sample) error {
		files := make([]string, len(parts))
		for i, part := range parts {
			files[i] = part.File
		}
		return vcf.ConcatVariantFiles(files, outFile)
	})
}

// ParallelVariantCallRegion performs variant calling and post-analysis on
// samples by region. Samples are expanded per requested caller, batched,
// scattered by region through the execution engine, and gathered back into
// per-sample call files. Pre-combined records and samples without calling
// work pass through unchanged, ahead of the processed results.
func ParallelVariantCallRegion(ctx context.Context, samples [][]*sample.Sample, eng runner.Runner) ([][]*sample.Sample, error) {
	var toProcess, extras [][]*sample.Sample
	var toGroup []*sample.Sample
	for _, x := range samples {
		if len(x) == 1 && x[0].IsPreCombined() {
			toGroup = append(toGroup, x[0])
			continue
		}
		expanded, err := HandleMultipleCallers(x)
		if err != nil {
			return nil, err
		}
		if len(expanded) > 0 {
			toProcess = append(toProcess, expanded...)
		} else {
			extras = append(extras, x)
		}
	}
	if len(toGroup) > 0 {
		extras = append(extras, sample.GroupCombineParts(toGroup)...)
	}
	processed, err := eng.GroupedSplitCombine(ctx, runner.Request{
		Items:           toProcess,
		Split:           SplitByReadyRegions(CallFileExt, callerDirExt, DefaultBatchDrivers),
		Group:           sample.GroupBatches,
		DispatchOp:      OpVariantCallSample,
		CombineOp:       OpConcatVariantFiles,
		FileKey:         "vrn_file",
		PropagateFields: []string{"region", "sam_ref", "config"},
	})
	if err != nil {
		return nil, err
	}
	return append(extras, processed...), nil
}
