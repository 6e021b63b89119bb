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

// Package calling coordinates parallel variant calling: it expands samples
// by requested caller, scatters them by region, dispatches each region to a
// calling backend, and collapses multi-caller results per alignment file.
package calling

import (
	"github.com/genoscale/varcall/sample"
)

// HandleMultipleCallers splits a sample that potentially requires multiple
// variant calling approaches into independent work items. A single caller
// selection passes the item through unchanged; no selection yields no work
// items; a multiple selection yields one deep-copied item per requested
// caller, each recording the full original request order. The copies share
// no mutable state, so the items can proceed through concurrent calling
// independently.
func HandleMultipleCallers(item []*sample.Sample) ([][]*sample.Sample, error) {
	if len(item) != 1 {
		return nil, &MalformedSampleError{Sample: "<group>", Reason: "caller expansion expects singleton groups"}
	}
	data := item[0]
	sel := data.Config.Algorithm.VariantCaller
	if _, ok := sel.Single(); ok {
		return [][]*sample.Sample{item}, nil
	}
	if sel.IsNone() {
		return nil, nil
	}
	ids, _ := sel.Multiple()
	out := make([][]*sample.Sample, 0, len(ids))
	for _, id := range ids {
		base := data.Clone()
		base.Config.Algorithm.OrigVariantCaller = append([]string(nil), ids...)
		base.Config.Algorithm.VariantCaller = sample.SingleCaller(id)
		out = append(out, []*sample.Sample{base})
	}
	return out, nil
}
