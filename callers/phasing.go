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

package callers

import (
	"github.com/genoscale/varcall/internal"
	"github.com/genoscale/varcall/region"
	"github.com/genoscale/varcall/sample"
)

// A PhasingFn assigns variant calls to parental chromosome copies using
// read evidence, replacing the call file with a phased one.
type PhasingFn func(callFile string, alignBams []string, ref string,
	reg *region.Region, cfg sample.Config) (string, error)

// PhasingGatk is the only phasing mode currently supported.
const PhasingGatk = "gatk"

// ReadBackedPhasing phases a call file with GATK's ReadBackedPhasing
// walker. Already-phased outputs are reused.
func ReadBackedPhasing(callFile string, alignBams []string, ref string,
	reg *region.Region, _ sample.Config) (string, error) {
	base, ext := internal.SplitextPlus(callFile)
	outFile := base + "-phased" + ext
	if internal.FileExists(outFile) {
		return outFile, nil
	}
	args := []string{"-T", "ReadBackedPhasing", "-R", ref,
		"--variant", callFile, "-o", outFile}
	for _, bam := range alignBams {
		args = append(args, "-I", bam)
	}
	if loc := regionArg(reg); loc != "" {
		args = append(args, "-L", loc)
	}
	if err := runTool("gatk3", args...); err != nil {
		return "", err
	}
	return outFile, nil
}
