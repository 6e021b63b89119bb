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
	"os"
	"path/filepath"
	"testing"
)

func TestVariantFiltrationPassthrough(t *testing.T) {
	for _, caller := range []string{"samtools", "varscan", "cortex", "mutect", ""} {
		out, err := VariantFiltration("calls.vcf.gz", "ref.fa", nil, caller)
		if err != nil {
			t.Fatal(err)
		}
		if out != "calls.vcf.gz" {
			t.Error("caller ", caller, " should pass the call file through: ", out)
		}
	}
}

func TestFilterOutFile(t *testing.T) {
	if got := filterOutFile("calls.vcf.gz"); got != "calls-filter.vcf.gz" {
		t.Error("filter output naming failed: ", got)
	}
	if got := filterOutFile("calls.vcf"); got != "calls-filter.vcf" {
		t.Error("filter output naming failed: ", got)
	}
}

func TestVariantFiltrationReusesExisting(t *testing.T) {
	for _, caller := range []string{"freebayes", "gatk", "gatk-haplotype"} {
		dir := t.TempDir()
		callFile := filepath.Join(dir, "calls.vcf.gz")
		filterFile := filepath.Join(dir, "calls-filter.vcf.gz")
		if err := os.WriteFile(callFile, []byte("calls"), 0600); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filterFile, []byte("filtered"), 0600); err != nil {
			t.Fatal(err)
		}
		out, err := VariantFiltration(callFile, "ref.fa", nil, caller)
		if err != nil {
			t.Fatal("caller ", caller, ": ", err)
		}
		if out != filterFile {
			t.Error("caller ", caller, " should reuse the existing filtered file: ", out)
		}
	}
}
