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

// Package sample holds the per-sample records that flow through the calling
// pipeline, and the sample sheet loader that creates them.
package sample

import (
	"strings"

	"github.com/genoscale/varcall/region"
)

// A CallerSelection says which variant calling backends a sample asks for:
// a single caller, an ordered list of callers whose results are merged
// afterwards in request order, or no calling at all. The zero value selects
// no caller.
type CallerSelection struct {
	single   string
	multiple []string
}

// SingleCaller selects exactly one calling backend.
func SingleCaller(id string) CallerSelection {
	return CallerSelection{single: id}
}

// MultipleCallers selects an ordered list of calling backends that run
// independently on the same sample.
func MultipleCallers(ids []string) CallerSelection {
	return CallerSelection{multiple: append([]string(nil), ids...)}
}

// NoCaller selects no calling backend; samples with this selection are
// excluded from calling.
func NoCaller() CallerSelection {
	return CallerSelection{}
}

// Single returns the caller identifier if exactly one backend is selected.
func (sel CallerSelection) Single() (string, bool) {
	return sel.single, sel.single != ""
}

// Multiple returns the ordered caller identifiers if a list of backends is
// selected.
func (sel CallerSelection) Multiple() ([]string, bool) {
	return sel.multiple, sel.multiple != nil
}

// IsNone tells whether no backend is selected.
func (sel CallerSelection) IsNone() bool {
	return sel.single == "" && sel.multiple == nil
}

func (sel CallerSelection) String() string {
	if sel.single != "" {
		return sel.single
	}
	if sel.multiple != nil {
		return strings.Join(sel.multiple, ",")
	}
	return "<none>"
}

func (sel CallerSelection) clone() CallerSelection {
	return CallerSelection{
		single:   sel.single,
		multiple: append([]string(nil), sel.multiple...),
	}
}

type (
	// Algorithm is the calling configuration of a sample.
	Algorithm struct {
		// VariantCaller is the active caller selection. Expansion rewrites a
		// multiple selection into one single selection per work item.
		VariantCaller CallerSelection `mapstructure:"-"`

		// OrigVariantCaller records the originally requested caller order
		// when a sample was expanded into several work items. The
		// multi-caller combiner sorts merged results by this order.
		OrigVariantCaller []string `mapstructure:"orig_variantcaller"`

		// Phasing selects read-backed phasing of call files; currently only
		// "gatk" is supported.
		Phasing string `mapstructure:"phasing"`

		// BatchDriverRoles lists the metadata phenotypes that force
		// recomputation of existing outputs to keep batched analyses
		// consistent. Empty means the default ("tumor").
		BatchDriverRoles []string `mapstructure:"batch_driver_roles"`

		// Extra carries algorithm keys this tool does not interpret but
		// passes through to calling backends.
		Extra map[string]interface{} `mapstructure:",remain"`
	}

	// Config is the configuration block of a sample.
	Config struct {
		Algorithm Algorithm
	}

	// Dirs is the directory layout of a pipeline run.
	Dirs struct {
		Work string
	}

	// Metadata describes the role a sample plays in its batch.
	Metadata struct {
		Phenotype string
		Batch     string
	}

	// GenomeResources points at the variation resources (dbSNP, known
	// indels, ...) some callers need.
	GenomeResources struct {
		Variation map[string]string
	}

	// Combine marks a record whose Key field was already merged upstream
	// into the canonical output Out.
	Combine struct {
		Key string
		Out string
	}

	// A VariantResult is one caller's contribution to a grouped result.
	VariantResult struct {
		VariantCaller string
		VrnFile       string
		Validate      map[string]interface{}
	}

	// A Sample is one unit of calling work: aligned reads plus everything
	// needed to call variants on them. Per-sample caller expansion clones
	// samples so that concurrent work items never share nested state.
	Sample struct {
		Description     string
		Group           []string // batch group names; first entry names the group
		WorkBams        []string // aligned reads; a single entry for plain samples
		GroupOrig       []*Sample
		SamRef          string
		Region          *region.Region
		Config          Config
		Dirs            Dirs
		Metadata        Metadata
		GenomeResources GenomeResources
		Combine         *Combine
		Validate        map[string]interface{}
		VrnFile         string
		Variants        []VariantResult
	}
)

// CombineKeyWorkBam is the combine directive key for merged alignment files.
const CombineKeyWorkBam = "work_bam"

// Name returns the name used for output files: the group name for batched
// samples, the sample description otherwise.
func (s *Sample) Name() string {
	if len(s.Group) > 0 {
		return s.Group[0]
	}
	return s.Description
}

// ActiveCaller returns the single caller identifier a work item resolved
// to, or "" when the selection is not a single caller.
func (s *Sample) ActiveCaller() string {
	id, _ := s.Config.Algorithm.VariantCaller.Single()
	return id
}

// IsPreCombined tells whether the record carries a combine directive whose
// key is already materialized on the record, meaning upstream work merged it
// and it must be routed to grouping instead of calling.
func (s *Sample) IsPreCombined() bool {
	return s.Combine != nil && s.Combine.Key == CombineKeyWorkBam && len(s.WorkBams) > 0
}

// CombinedBam returns the canonical alignment reference of the record: the
// combine output when present, the first aligned reads file otherwise.
func (s *Sample) CombinedBam() string {
	if s.Combine != nil && s.Combine.Out != "" {
		return s.Combine.Out
	}
	return strings.Join(s.WorkBams, ",")
}

func deepCopyValue(v interface{}) interface{} {
	switch v := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(v))
		for key, value := range v {
			m[key] = deepCopyValue(value)
		}
		return m
	case map[interface{}]interface{}:
		m := make(map[interface{}]interface{}, len(v))
		for key, value := range v {
			m[key] = deepCopyValue(value)
		}
		return m
	case []interface{}:
		s := make([]interface{}, len(v))
		for i, value := range v {
			s[i] = deepCopyValue(value)
		}
		return s
	default:
		return v
	}
}

func deepCopyMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	return deepCopyValue(m).(map[string]interface{})
}

func (a Algorithm) clone() Algorithm {
	return Algorithm{
		VariantCaller:     a.VariantCaller.clone(),
		OrigVariantCaller: append([]string(nil), a.OrigVariantCaller...),
		Phasing:           a.Phasing,
		BatchDriverRoles:  append([]string(nil), a.BatchDriverRoles...),
		Extra:             deepCopyMap(a.Extra),
	}
}

// Clone returns a deep copy of the sample. No mutable structure is shared
// between the original and the copy, so both can proceed through concurrent
// calling and region splitting independently.
func (s *Sample) Clone() *Sample {
	c := *s
	c.Group = append([]string(nil), s.Group...)
	c.WorkBams = append([]string(nil), s.WorkBams...)
	if s.GroupOrig != nil {
		c.GroupOrig = make([]*Sample, len(s.GroupOrig))
		for i, orig := range s.GroupOrig {
			c.GroupOrig[i] = orig.Clone()
		}
	}
	if s.Region != nil {
		r := *s.Region
		c.Region = &r
	}
	c.Config.Algorithm = s.Config.Algorithm.clone()
	if s.GenomeResources.Variation != nil {
		m := make(map[string]string, len(s.GenomeResources.Variation))
		for key, value := range s.GenomeResources.Variation {
			m[key] = value
		}
		c.GenomeResources.Variation = m
	}
	if s.Combine != nil {
		combine := *s.Combine
		c.Combine = &combine
	}
	c.Validate = deepCopyMap(s.Validate)
	if s.Variants != nil {
		c.Variants = make([]VariantResult, len(s.Variants))
		for i, variant := range s.Variants {
			variant.Validate = deepCopyMap(variant.Validate)
			c.Variants[i] = variant
		}
	}
	return &c
}
