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
	"fmt"
	"path/filepath"

	"github.com/genoscale/varcall/internal"
	"github.com/genoscale/varcall/runner"
	"github.com/genoscale/varcall/sample"
)

// DefaultBatchDrivers are the sample roles that force recomputation of
// existing outputs, so batched analyses stay consistent when the driving
// side changed. Samples can override the roles through their algorithm
// configuration.
var DefaultBatchDrivers = []string{"tumor"}

func isBatchDriver(data *sample.Sample, defaults []string) bool {
	roles := data.Config.Algorithm.BatchDriverRoles
	if len(roles) == 0 {
		roles = defaults
	}
	for _, role := range roles {
		if data.Metadata.Phenotype == role {
			return true
		}
	}
	return false
}

// SplitByReadyRegions plans region splits against pre-built region files.
// Samples without a region, or with a sentinel region, bypass splitting.
// When the final output already exists the split is skipped, except for
// batch driver samples, whose outputs are always recomputed. Output paths
// are deterministic in sample name and region, so repeated runs reuse
// rather than recompute prior work.
func SplitByReadyRegions(ext string, dirExtFn func(*sample.Sample) string, batchDrivers []string) runner.SplitFn {
	return func(data *sample.Sample) (string, []runner.Part) {
		if data.Region == nil || data.Region.IsSentinel() {
			return "", nil
		}
		name := internal.SafeFilename(data.Name())
		outDir := filepath.Join(data.Dirs.Work, dirExtFn(data))
		outFile := filepath.Join(outDir, name+ext)
		if !internal.FileExists(outFile) || isBatchDriver(data, batchDrivers) {
			regionDir := filepath.Join(outDir, data.Region.Chrom)
			regionFile := filepath.Join(regionDir, fmt.Sprintf("%s-%s%s", name, data.Region.SafeStr(), ext))
			return outFile, []runner.Part{{Region: *data.Region, File: regionFile}}
		}
		return outFile, nil
	}
}
