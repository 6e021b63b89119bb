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
	"fmt"

	"github.com/genoscale/varcall/internal"
)

// VariantFiltration filters a finished call file, keyed by the caller
// identifier that produced it. It runs downstream of the calling round, on
// whole-sample call files; callers that filter as part of the call process
// pass through unchanged.
func VariantFiltration(callFile, ref string, vrnFiles map[string]string, caller string) (string, error) {
	switch caller {
	case "freebayes":
		return freebayesFilter(callFile)
	case "gatk", "gatk-haplotype":
		return gatkHardFilter(callFile, ref, vrnFiles)
	default:
		return callFile, nil
	}
}

func filterOutFile(callFile string) string {
	base, ext := internal.SplitextPlus(callFile)
	return base + "-filter" + ext
}

func freebayesFilter(callFile string) (string, error) {
	outFile := filterOutFile(callFile)
	if internal.FileExists(outFile) {
		return outFile, nil
	}
	script := fmt.Sprintf("vcffilter -f 'QUAL > 20' %s | bgzip -c > %s",
		shellQuote([]string{callFile}), shellQuote([]string{outFile}))
	if err := runShell(script); err != nil {
		return "", err
	}
	return outFile, nil
}

func gatkHardFilter(callFile, ref string, vrnFiles map[string]string) (string, error) {
	outFile := filterOutFile(callFile)
	if internal.FileExists(outFile) {
		return outFile, nil
	}
	args := []string{"VariantFiltration", "-R", ref,
		"-V", callFile, "-O", outFile,
		"--filter-name", "LowQD", "--filter-expression", "QD < 2.0",
		"--filter-name", "HighFS", "--filter-expression", "FS > 60.0"}
	if mask := vrnFiles["train_indels"]; mask != "" {
		args = append(args, "--mask", mask, "--mask-name", "KnownIndel")
	}
	if err := runTool("gatk", args...); err != nil {
		return "", err
	}
	return outFile, nil
}
