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
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"github.com/genoscale/varcall/region"
	"github.com/genoscale/varcall/sample"
)

// regionArg formats a region for the -L/-r style options of the external
// tools, or returns "" for whole-file calling.
func regionArg(reg *region.Region) string {
	if reg == nil || reg.IsSentinel() {
		return ""
	}
	if reg.End == 0 {
		return reg.Chrom
	}
	// the tools use 1-based inclusive coordinates
	return fmt.Sprintf("%s:%d-%d", reg.Chrom, reg.Start+1, reg.End)
}

func runTool(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%v (%v), while running %v", err, msg, name)
		}
		return fmt.Errorf("%v, while running %v", err, name)
	}
	return nil
}

func runShell(script string) error {
	return runTool("sh", "-c", script)
}

func shellQuote(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
	}
	return strings.Join(quoted, " ")
}

func unifiedGenotyper(alignBams []string, _ []*sample.Sample, ref string,
	variation map[string]string, reg *region.Region, rawFile string) (string, error) {
	args := []string{"-T", "UnifiedGenotyper", "-R", ref, "-o", rawFile,
		"--genotype_likelihoods_model", "BOTH"}
	for _, bam := range alignBams {
		args = append(args, "-I", bam)
	}
	if dbsnp := variation["dbsnp"]; dbsnp != "" {
		args = append(args, "--dbsnp", dbsnp)
	}
	if loc := regionArg(reg); loc != "" {
		args = append(args, "-L", loc)
	}
	if err := runTool("gatk3", args...); err != nil {
		return "", err
	}
	return rawFile, nil
}

func haplotypeCaller(alignBams []string, _ []*sample.Sample, ref string,
	variation map[string]string, reg *region.Region, rawFile string) (string, error) {
	args := []string{"HaplotypeCaller", "-R", ref, "-O", rawFile}
	for _, bam := range alignBams {
		args = append(args, "-I", bam)
	}
	if dbsnp := variation["dbsnp"]; dbsnp != "" {
		args = append(args, "--dbsnp", dbsnp)
	}
	if loc := regionArg(reg); loc != "" {
		args = append(args, "-L", loc)
	}
	if err := runTool("gatk", args...); err != nil {
		return "", err
	}
	return rawFile, nil
}

func runFreebayes(alignBams []string, _ []*sample.Sample, ref string,
	_ map[string]string, reg *region.Region, rawFile string) (string, error) {
	args := []string{"-f", ref, "--genotype-qualities"}
	if loc := regionArg(reg); loc != "" {
		args = append(args, "--region", loc)
	}
	args = append(args, alignBams...)
	script := fmt.Sprintf("freebayes %s | bgzip -c > %s", shellQuote(args), shellQuote([]string{rawFile}))
	if err := runShell(script); err != nil {
		return "", err
	}
	return rawFile, nil
}

func runSamtools(alignBams []string, _ []*sample.Sample, ref string,
	_ map[string]string, reg *region.Region, rawFile string) (string, error) {
	mpileup := []string{"mpileup", "-f", ref}
	if loc := regionArg(reg); loc != "" {
		mpileup = append(mpileup, "-r", loc)
	}
	mpileup = append(mpileup, alignBams...)
	script := fmt.Sprintf("bcftools %s | bcftools call -mv -Oz -o %s",
		shellQuote(mpileup), shellQuote([]string{rawFile}))
	if err := runShell(script); err != nil {
		return "", err
	}
	return rawFile, nil
}

func runVarscan(alignBams []string, _ []*sample.Sample, ref string,
	_ map[string]string, reg *region.Region, rawFile string) (string, error) {
	mpileup := []string{"mpileup", "-f", ref}
	if loc := regionArg(reg); loc != "" {
		mpileup = append(mpileup, "-r", loc)
	}
	mpileup = append(mpileup, alignBams...)
	script := fmt.Sprintf("samtools %s | varscan mpileup2cns --output-vcf --variants | bgzip -c > %s",
		shellQuote(mpileup), shellQuote([]string{rawFile}))
	if err := runShell(script); err != nil {
		return "", err
	}
	return rawFile, nil
}

func runCortex(alignBams []string, _ []*sample.Sample, ref string,
	_ map[string]string, reg *region.Region, rawFile string) (string, error) {
	args := []string{"--ref", ref, "--out", rawFile}
	if loc := regionArg(reg); loc != "" {
		args = append(args, "--region", loc)
	}
	args = append(args, "--bams")
	args = append(args, alignBams...)
	if err := runTool("cortex_var", args...); err != nil {
		return "", err
	}
	return rawFile, nil
}

// mutectCaller needs the tumor/normal roles of a batched sample, which it
// reads from the phenotype metadata of the constituent records.
func mutectCaller(alignBams []string, items []*sample.Sample, ref string,
	variation map[string]string, reg *region.Region, rawFile string) (string, error) {
	args := []string{"--analysis_type", "MuTect", "-R", ref, "--vcf", rawFile}
	for i, bam := range alignBams {
		role := "-I:tumor"
		if i < len(items) && items[i].Metadata.Phenotype == "normal" {
			role = "-I:normal"
		}
		args = append(args, role, bam)
	}
	if cosmic := variation["cosmic"]; cosmic != "" {
		args = append(args, "--cosmic", cosmic)
	}
	if dbsnp := variation["dbsnp"]; dbsnp != "" {
		args = append(args, "--dbsnp", dbsnp)
	}
	if loc := regionArg(reg); loc != "" {
		args = append(args, "-L", loc)
	}
	if err := runTool("mutect", args...); err != nil {
		return "", err
	}
	return rawFile, nil
}
