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
	"sort"

	"github.com/genoscale/varcall/sample"
)

func entryCaller(data *sample.Sample) string {
	if id := data.ActiveCaller(); id != "" {
		return id
	}
	return sample.DefaultCaller
}

// CombineMultipleCallers collapses variant calls from multiple approaches
// into one record per alignment file. Records are grouped by their
// canonical alignment reference; each group is folded into its first member
// by attaching one summary entry per caller result. When the first member
// recorded the original multi-caller request order, the entries are sorted
// to match it; otherwise they keep arrival order. Every input record ends
// up in exactly one group, never duplicated or dropped.
func CombineMultipleCallers(data [][]*sample.Sample) [][]*sample.Sample {
	var order []string
	byBam := make(map[string][]*sample.Sample)
	for _, item := range data {
		for _, x := range item {
			key := x.CombinedBam()
			if _, seen := byBam[key]; !seen {
				order = append(order, key)
			}
			byBam[key] = append(byBam[key], x)
		}
	}
	out := make([][]*sample.Sample, 0, len(order))
	for _, key := range order {
		groupedCalls := byBam[key]
		readyCalls := make([]sample.VariantResult, len(groupedCalls))
		for i, x := range groupedCalls {
			readyCalls[i] = sample.VariantResult{
				VariantCaller: entryCaller(x),
				VrnFile:       x.VrnFile,
				Validate:      x.Validate,
			}
		}
		final := groupedCalls[0]
		origOrder := final.Config.Algorithm.OrigVariantCaller
		if len(readyCalls) > 1 && len(origOrder) > 0 {
			index := func(id string) int {
				for i, orig := range origOrder {
					if orig == id {
						return i
					}
				}
				return len(origOrder)
			}
			sort.SliceStable(readyCalls, func(i, j int) bool {
				return index(readyCalls[i].VariantCaller) < index(readyCalls[j].VariantCaller)
			})
		}
		final.Variants = readyCalls
		out = append(out, []*sample.Sample{final})
	}
	return out
}
