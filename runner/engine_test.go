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

package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/genoscale/varcall/region"
	"github.com/genoscale/varcall/sample"
)

func testConfig() Config {
	return Config{Workers: 2, MaxRetries: 2, RetryInterval: time.Millisecond}
}

func splitPerSample(data *sample.Sample) (string, []Part) {
	switch data.Description {
	case "skip":
		return "", nil
	case "done":
		return "done.vcf", nil
	default:
		return data.Description + ".vcf", []Part{{
			Region: region.Region{Chrom: "chr1", Start: 0, End: 100},
			File:   data.Description + "-part.vcf",
		}}
	}
}

func annotatingDispatch(_ context.Context, data *sample.Sample, _ *region.Region, outFile string) ([]*sample.Sample, error) {
	data.VrnFile = outFile
	return []*sample.Sample{data}, nil
}

func TestGroupedSplitCombine(t *testing.T) {
	eng := NewLocal(testConfig())
	eng.RegisterDispatch("call", annotatingDispatch)
	var mu sync.Mutex
	combined := make(map[string][]Part)
	eng.RegisterCombine("merge", func(outFile string, parts []Part, _ *sample.Sample) error {
		mu.Lock()
		combined[outFile] = parts
		mu.Unlock()
		return nil
	})

	skip := &sample.Sample{Description: "skip"}
	done := &sample.Sample{Description: "done"}
	work := &sample.Sample{Description: "work", SamRef: "ref.fa",
		Region: &region.Region{Chrom: "chr1", Start: 0, End: 100}}

	out, err := eng.GroupedSplitCombine(context.Background(), Request{
		Items:           [][]*sample.Sample{{skip}, {done}, {work}},
		Split:           splitPerSample,
		DispatchOp:      "call",
		CombineOp:       "merge",
		FileKey:         "vrn_file",
		PropagateFields: []string{"region", "sam_ref", "config"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 {
		t.Fatal("expected 3 items, got ", len(out))
	}
	if out[0][0] != skip || skip.VrnFile != "" {
		t.Error("skipped items should pass through untouched")
	}
	if out[1][0] != done || done.VrnFile != "done.vcf" {
		t.Error("finished items should only get the file key attached: ", done.VrnFile)
	}
	final := out[2][0]
	if final.VrnFile != "work.vcf" {
		t.Error("dispatched items should end up with the combined output: ", final.VrnFile)
	}
	if final == work {
		t.Error("dispatched items must be copies of the input record")
	}
	if final.SamRef != "ref.fa" || final.Region == nil || final.Region.Chrom != "chr1" {
		t.Error("propagated fields missing on the result record")
	}
	parts := combined["work.vcf"]
	if len(parts) != 1 || parts[0].File != "work-part.vcf" {
		t.Error("combine should receive the planned parts: ", parts)
	}
}

func TestGroupedSplitCombineGrouping(t *testing.T) {
	eng := NewLocal(testConfig())
	eng.RegisterDispatch("call", annotatingDispatch)
	eng.RegisterCombine("merge", func(string, []Part, *sample.Sample) error { return nil })

	grouped := false
	out, err := eng.GroupedSplitCombine(context.Background(), Request{
		Items: [][]*sample.Sample{{{Description: "skip"}}, {{Description: "skip"}}},
		Group: func(items [][]*sample.Sample) [][]*sample.Sample {
			grouped = true
			return items[:1]
		},
		Split:      splitPerSample,
		DispatchOp: "call",
		CombineOp:  "merge",
		FileKey:    "vrn_file",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !grouped {
		t.Error("the batching function should run before splitting")
	}
	if len(out) != 1 {
		t.Error("results should follow the batched items, got ", len(out))
	}
}

func TestGroupedSplitCombineRetry(t *testing.T) {
	eng := NewLocal(testConfig())
	var attempts int32
	eng.RegisterDispatch("call", func(_ context.Context, data *sample.Sample, _ *region.Region, outFile string) ([]*sample.Sample, error) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return nil, errors.New("transient failure")
		}
		data.VrnFile = outFile
		return []*sample.Sample{data}, nil
	})
	eng.RegisterCombine("merge", func(string, []Part, *sample.Sample) error { return nil })

	out, err := eng.GroupedSplitCombine(context.Background(), Request{
		Items:      [][]*sample.Sample{{{Description: "work"}}},
		Split:      splitPerSample,
		DispatchOp: "call",
		CombineOp:  "merge",
		FileKey:    "vrn_file",
	})
	if err != nil {
		t.Fatal("transient failures within the retry budget should succeed: ", err)
	}
	if attempts != 3 {
		t.Error("expected 3 attempts, got ", attempts)
	}
	if out[0][0].VrnFile != "work.vcf" {
		t.Error("retried dispatch should still produce the output")
	}
}

type permanentError struct{ msg string }

func (e *permanentError) Error() string   { return e.msg }
func (e *permanentError) Permanent() bool { return true }

func TestGroupedSplitCombinePermanentError(t *testing.T) {
	eng := NewLocal(testConfig())
	var attempts int32
	eng.RegisterDispatch("call", func(context.Context, *sample.Sample, *region.Region, string) ([]*sample.Sample, error) {
		atomic.AddInt32(&attempts, 1)
		return nil, fmt.Errorf("%w, while calling", &permanentError{msg: "unknown variant caller"})
	})
	eng.RegisterCombine("merge", func(string, []Part, *sample.Sample) error { return nil })

	_, err := eng.GroupedSplitCombine(context.Background(), Request{
		Items:      [][]*sample.Sample{{{Description: "work"}}},
		Split:      splitPerSample,
		DispatchOp: "call",
		CombineOp:  "merge",
		FileKey:    "vrn_file",
	})
	if err == nil {
		t.Fatal("permanent errors must fail the request")
	}
	if attempts != 1 {
		t.Error("permanent errors must not be retried, got ", attempts, " attempts")
	}
}

func TestGroupedSplitCombineRetryBudget(t *testing.T) {
	eng := NewLocal(testConfig())
	var attempts int32
	eng.RegisterDispatch("call", func(context.Context, *sample.Sample, *region.Region, string) ([]*sample.Sample, error) {
		atomic.AddInt32(&attempts, 1)
		return nil, errors.New("transient failure")
	})
	eng.RegisterCombine("merge", func(string, []Part, *sample.Sample) error { return nil })

	_, err := eng.GroupedSplitCombine(context.Background(), Request{
		Items:      [][]*sample.Sample{{{Description: "work"}}},
		Split:      splitPerSample,
		DispatchOp: "call",
		CombineOp:  "merge",
		FileKey:    "vrn_file",
	})
	if err == nil {
		t.Fatal("exhausted retries must fail the request")
	}
	// initial attempt plus MaxRetries retries
	if attempts != 3 {
		t.Error("expected 3 attempts, got ", attempts)
	}
}

func TestGroupedSplitCombineUnknownOps(t *testing.T) {
	eng := NewLocal(testConfig())
	eng.RegisterDispatch("call", annotatingDispatch)
	eng.RegisterCombine("merge", func(string, []Part, *sample.Sample) error { return nil })

	if _, err := eng.GroupedSplitCombine(context.Background(), Request{
		Split: splitPerSample, DispatchOp: "nonexistent", CombineOp: "merge", FileKey: "vrn_file",
	}); err == nil {
		t.Error("unknown dispatch operations must be rejected")
	}
	if _, err := eng.GroupedSplitCombine(context.Background(), Request{
		Split: splitPerSample, DispatchOp: "call", CombineOp: "nonexistent", FileKey: "vrn_file",
	}); err == nil {
		t.Error("unknown merge operations must be rejected")
	}
}
