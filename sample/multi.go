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

package sample

// GroupBatches merges work items that belong to the same logical batch
// (tumor/normal pairs and the like) into one joint item per batch and
// active caller, so that paired samples are called together. The joint item
// carries all alignment files of its members, keeps the original member
// records under GroupOrig, and is named after the batch. Items without a
// batch pass through unchanged.
func GroupBatches(items [][]*Sample) [][]*Sample {
	type batchKey struct {
		batch  string
		caller string
	}
	var order []batchKey
	batches := make(map[batchKey][]*Sample)
	var out [][]*Sample
	for _, item := range items {
		data := item[0]
		if data.Metadata.Batch == "" {
			out = append(out, item)
			continue
		}
		key := batchKey{data.Metadata.Batch, data.Config.Algorithm.VariantCaller.String()}
		if _, seen := batches[key]; !seen {
			order = append(order, key)
		}
		batches[key] = append(batches[key], data)
	}
	for _, key := range order {
		members := batches[key]
		joint := members[0].Clone()
		joint.Group = []string{key.batch}
		joint.WorkBams = nil
		joint.GroupOrig = nil
		for _, member := range members {
			joint.WorkBams = append(joint.WorkBams, member.WorkBams...)
			joint.GroupOrig = append(joint.GroupOrig, member.Clone())
		}
		out = append(out, []*Sample{joint})
	}
	return out
}

// GroupCombineParts regroups records that were already combined upstream:
// records sharing a combine output are gathered into one group so the
// multi-caller combiner can collapse them without further calling work.
func GroupCombineParts(toGroup []*Sample) [][]*Sample {
	var order []string
	groups := make(map[string][]*Sample)
	for _, data := range toGroup {
		key := data.CombinedBam()
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], data)
	}
	out := make([][]*Sample, 0, len(order))
	for _, key := range order {
		out = append(out, groups[key])
	}
	return out
}
