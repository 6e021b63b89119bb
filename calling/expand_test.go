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
	"errors"
	"testing"

	"github.com/genoscale/varcall/sample"
)

func TestHandleMultipleCallersSingle(t *testing.T) {
	data := &sample.Sample{
		Description: "NA12878",
		WorkBams:    []string{"a.bam"},
		Config:      sample.Config{Algorithm: sample.Algorithm{VariantCaller: sample.SingleCaller("freebayes")}},
	}
	out, err := HandleMultipleCallers([]*sample.Sample{data})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || len(out[0]) != 1 {
		t.Fatal("single caller selection should produce one work item")
	}
	if out[0][0] != data {
		t.Error("single caller selection should pass the item through unchanged")
	}
	if len(out[0][0].Config.Algorithm.OrigVariantCaller) != 0 {
		t.Error("single caller selection should not record a request order")
	}
}

func TestHandleMultipleCallersNone(t *testing.T) {
	data := &sample.Sample{Description: "precalled", WorkBams: []string{"a.bam"}}
	out, err := HandleMultipleCallers([]*sample.Sample{data})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Error("no caller selection should produce no work items, got ", len(out))
	}
}

func TestHandleMultipleCallersExpansion(t *testing.T) {
	ids := []string{"gatk", "freebayes", "samtools"}
	data := &sample.Sample{
		Description: "NA12878",
		WorkBams:    []string{"a.bam"},
		Config: sample.Config{Algorithm: sample.Algorithm{
			VariantCaller: sample.MultipleCallers(ids),
			Extra:         map[string]interface{}{"shared": map[string]interface{}{"key": "value"}},
		}},
	}
	out, err := HandleMultipleCallers([]*sample.Sample{data})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 {
		t.Fatal("expected one work item per requested caller, got ", len(out))
	}
	for i, item := range out {
		x := item[0]
		if x == data {
			t.Fatal("expanded items must be copies, not the original")
		}
		if got := x.ActiveCaller(); got != ids[i] {
			t.Error("work item ", i, " resolved to caller ", got, ", expected ", ids[i])
		}
		orig := x.Config.Algorithm.OrigVariantCaller
		if len(orig) != 3 || orig[0] != "gatk" || orig[1] != "freebayes" || orig[2] != "samtools" {
			t.Error("work item ", i, " should record the full request order: ", orig)
		}
	}

	// mutating one item must not leak into its siblings
	out[0][0].Config.Algorithm.Extra["shared"].(map[string]interface{})["key"] = "changed"
	out[0][0].Config.Algorithm.OrigVariantCaller[0] = "changed"
	if out[1][0].Config.Algorithm.Extra["shared"].(map[string]interface{})["key"] != "value" {
		t.Error("expanded items share nested algorithm state")
	}
	if out[1][0].Config.Algorithm.OrigVariantCaller[0] != "gatk" {
		t.Error("expanded items share the recorded request order")
	}
}

func TestHandleMultipleCallersMalformed(t *testing.T) {
	_, err := HandleMultipleCallers([]*sample.Sample{{Description: "a"}, {Description: "b"}})
	var malformed *MalformedSampleError
	if !errors.As(err, &malformed) {
		t.Error("non-singleton groups should be rejected, got ", err)
	}
}
