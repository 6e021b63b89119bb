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

// Package callers provides the pluggable variant calling backends and the
// registry that maps caller identifiers to them.
package callers

import (
	"fmt"
	"sort"

	"github.com/genoscale/varcall/region"
	"github.com/genoscale/varcall/sample"
)

// A Caller calls variants for one region of one or more aligned read files.
// items are the sample records behind alignBams: a single record for plain
// samples, the constituent records for batched samples. The caller writes
// its calls starting from rawFile and returns the path of the finished call
// file, which need not equal rawFile since some backends rename or
// post-process their output. Callers must be deterministic given identical
// inputs. A nil region means the whole file.
type Caller func(alignBams []string, items []*sample.Sample, ref string,
	variation map[string]string, reg *region.Region, rawFile string) (string, error)

// UnknownCallerError reports a caller identifier with no registry mapping.
type UnknownCallerError struct {
	Caller string
}

func (e *UnknownCallerError) Error() string {
	return fmt.Sprintf("unknown variant caller %v", e.Caller)
}

// Permanent marks the error as not worth retrying.
func (e *UnknownCallerError) Permanent() bool {
	return true
}

// A Registry maps caller identifiers to calling backends. It is built once
// and read-only afterwards, so it can be shared by concurrent dispatches.
type Registry struct {
	table map[string]Caller
}

// NewRegistry returns an empty caller registry.
func NewRegistry() *Registry {
	return &Registry{table: make(map[string]Caller)}
}

// Register adds a calling backend under the given identifier, replacing any
// previous registration.
func (r *Registry) Register(id string, fn Caller) {
	r.table[id] = fn
}

// Resolve returns the calling backend registered under the given
// identifier, or an UnknownCallerError.
func (r *Registry) Resolve(id string) (Caller, error) {
	fn, ok := r.table[id]
	if !ok {
		return nil, &UnknownCallerError{Caller: id}
	}
	return fn, nil
}

// Callers returns the registered identifiers in sorted order.
func (r *Registry) Callers() []string {
	ids := make([]string, 0, len(r.table))
	for id := range r.table {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Builtin returns a registry with all built-in calling backends.
func Builtin() *Registry {
	r := NewRegistry()
	r.Register("gatk", unifiedGenotyper)
	r.Register("gatk-haplotype", haplotypeCaller)
	r.Register("freebayes", runFreebayes)
	r.Register("samtools", runSamtools)
	r.Register("varscan", runVarscan)
	r.Register("cortex", runCortex)
	r.Register("mutect", mutectCaller)
	return r
}
