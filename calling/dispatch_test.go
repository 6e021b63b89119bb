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
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/genoscale/varcall/callers"
	"github.com/genoscale/varcall/region"
	"github.com/genoscale/varcall/sample"
)

// fakeRegistry registers a caller that writes rawFile and counts its
// invocations.
func fakeRegistry(id string, calls *int) *callers.Registry {
	r := callers.NewRegistry()
	r.Register(id, func(_ []string, _ []*sample.Sample, _ string, _ map[string]string, _ *region.Region, rawFile string) (string, error) {
		*calls++
		if err := os.WriteFile(rawFile, []byte("calls\n"), 0600); err != nil {
			return "", err
		}
		return rawFile, nil
	})
	return r
}

func dispatchSample(t *testing.T, caller string) *sample.Sample {
	t.Helper()
	return &sample.Sample{
		Description: "NA12878",
		WorkBams:    []string{"a.bam"},
		SamRef:      "ref.fa",
		Dirs:        sample.Dirs{Work: t.TempDir()},
		Config:      sample.Config{Algorithm: sample.Algorithm{VariantCaller: sample.SingleCaller(caller)}},
	}
}

func TestCallSample(t *testing.T) {
	var calls int
	d := &Dispatcher{Registry: fakeRegistry("fake", &calls)}
	data := dispatchSample(t, "fake")
	reg := &region.Region{Chrom: "chr1", Start: 0, End: 100}
	outFile := filepath.Join(data.Dirs.Work, "fake", "chr1", "NA12878-chr1_0_100.vcf")

	out, err := d.CallSample(context.Background(), data, reg, outFile)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].VrnFile != outFile {
		t.Error("dispatch should annotate the record with the output file")
	}
	if calls != 1 {
		t.Fatal("caller should have run once, ran ", calls, " times")
	}
	contents, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatal(err)
	}
	if string(contents) != "calls\n" {
		t.Error("output file does not carry the caller output")
	}
	base, ext := outFile[:len(outFile)-len(".vcf")], ".vcf"
	if _, err := os.Stat(base + "-raw" + ext); err != nil {
		t.Error("raw intermediate missing: ", err)
	}
}

func TestCallSampleIdempotent(t *testing.T) {
	var calls int
	d := &Dispatcher{Registry: fakeRegistry("fake", &calls)}
	data := dispatchSample(t, "fake")
	reg := &region.Region{Chrom: "chr1", Start: 0, End: 100}
	outFile := filepath.Join(data.Dirs.Work, "fake", "chr1", "NA12878-chr1_0_100.vcf")

	if _, err := d.CallSample(context.Background(), data, reg, outFile); err != nil {
		t.Fatal(err)
	}
	out, err := d.CallSample(context.Background(), data.Clone(), reg, outFile)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Error("existing output should not be recomputed, caller ran ", calls, " times")
	}
	if out[0].VrnFile != outFile {
		t.Error("skipped dispatch should still annotate the record")
	}
}

func TestCallSampleUnknownCaller(t *testing.T) {
	var calls int
	d := &Dispatcher{Registry: fakeRegistry("fake", &calls)}
	data := dispatchSample(t, "nonexistent")
	outFile := filepath.Join(data.Dirs.Work, "out.vcf")

	_, err := d.CallSample(context.Background(), data, nil, outFile)
	var unknown *callers.UnknownCallerError
	if !errors.As(err, &unknown) {
		t.Fatal("expected UnknownCallerError, got ", err)
	}
	if calls != 0 {
		t.Error("no caller should run for an unknown identifier")
	}
	if _, statErr := os.Stat(outFile); statErr == nil {
		t.Error("no output should be produced for an unknown identifier")
	}
}

func TestCallSampleMalformed(t *testing.T) {
	var calls int
	d := &Dispatcher{Registry: fakeRegistry("fake", &calls)}
	var malformed *MalformedSampleError

	data := dispatchSample(t, "fake")
	if _, err := d.CallSample(context.Background(), data, nil, ""); !errors.As(err, &malformed) {
		t.Error("missing output file should be malformed, got ", err)
	}

	data = dispatchSample(t, "fake")
	data.WorkBams = nil
	if _, err := d.CallSample(context.Background(), data, nil, filepath.Join(data.Dirs.Work, "out.vcf")); !errors.As(err, &malformed) {
		t.Error("missing aligned reads should be malformed, got ", err)
	}

	data = dispatchSample(t, "fake")
	data.Config.Algorithm.VariantCaller = sample.NoCaller()
	if _, err := d.CallSample(context.Background(), data, nil, filepath.Join(data.Dirs.Work, "out.vcf")); !errors.As(err, &malformed) {
		t.Error("missing caller selection should be malformed, got ", err)
	}

	data = dispatchSample(t, "fake")
	data.WorkBams = []string{"tumor.bam", "normal.bam"}
	if _, err := d.CallSample(context.Background(), data, nil, filepath.Join(data.Dirs.Work, "out.vcf")); !errors.As(err, &malformed) {
		t.Error("batched sample without member records should be malformed, got ", err)
	}
	if calls != 0 {
		t.Error("no caller should run on malformed samples")
	}
}

func TestCallSampleCallerFailure(t *testing.T) {
	r := callers.NewRegistry()
	r.Register("failing", func(_ []string, _ []*sample.Sample, _ string, _ map[string]string, _ *region.Region, _ string) (string, error) {
		return "", errors.New("tool exited with status 1")
	})
	d := &Dispatcher{Registry: r}
	data := dispatchSample(t, "failing")
	reg := &region.Region{Chrom: "chr1", Start: 0, End: 100}

	_, err := d.CallSample(context.Background(), data, reg, filepath.Join(data.Dirs.Work, "out.vcf"))
	var execErr *CallerExecutionError
	if !errors.As(err, &execErr) {
		t.Fatal("expected CallerExecutionError, got ", err)
	}
	if execErr.Caller != "failing" || !strings.Contains(execErr.Region, "chr1") {
		t.Error("execution error should name caller and region: ", execErr)
	}
	if !errors.Is(err, execErr.Err) {
		t.Error("execution error should wrap the backend error")
	}
}

func TestCallSamplePhasing(t *testing.T) {
	var calls int
	var phased bool
	d := &Dispatcher{
		Registry: fakeRegistry("fake", &calls),
		Phasing: func(callFile string, _ []string, _ string, _ *region.Region, _ sample.Config) (string, error) {
			phased = true
			// phasing works on the caller output itself
			if !strings.HasSuffix(callFile, "-raw.vcf") {
				t.Error("phasing received ", callFile, ", expected the raw caller output")
			}
			out := strings.TrimSuffix(callFile, ".vcf") + "-phased.vcf"
			if err := os.WriteFile(out, []byte("phased\n"), 0600); err != nil {
				return "", err
			}
			return out, nil
		},
	}
	data := dispatchSample(t, "fake")
	data.Config.Algorithm.Phasing = callers.PhasingGatk
	outFile := filepath.Join(data.Dirs.Work, "out.vcf")

	if _, err := d.CallSample(context.Background(), data, nil, outFile); err != nil {
		t.Fatal(err)
	}
	if !phased {
		t.Fatal("phasing step did not run")
	}
	contents, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatal(err)
	}
	if string(contents) != "phased\n" {
		t.Error("output should link the phased call file")
	}
}
