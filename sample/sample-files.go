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

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v2"

	"github.com/genoscale/varcall/region"
)

// cleanValue rewrites the map[interface{}]interface{} values produced by
// the YAML parser into map[string]interface{} so they can be decoded into
// structs.
func cleanValue(v interface{}) interface{} {
	switch v := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(v))
		for key, value := range v {
			m[fmt.Sprint(key)] = cleanValue(value)
		}
		return m
	case map[string]interface{}:
		m := make(map[string]interface{}, len(v))
		for key, value := range v {
			m[key] = cleanValue(value)
		}
		return m
	case []interface{}:
		s := make([]interface{}, len(v))
		for i, value := range v {
			s[i] = cleanValue(value)
		}
		return s
	default:
		return v
	}
}

type rawSample struct {
	Description     string                 `mapstructure:"description"`
	WorkBam         interface{}            `mapstructure:"work_bam"`
	SamRef          string                 `mapstructure:"sam_ref"`
	Region          string                 `mapstructure:"region"`
	Group           []string               `mapstructure:"group"`
	Metadata        Metadata               `mapstructure:"metadata"`
	Algorithm       map[string]interface{} `mapstructure:"algorithm"`
	GenomeResources GenomeResources        `mapstructure:"genome_resources"`
	Validate        map[string]interface{} `mapstructure:"validate"`
	Combine         *Combine               `mapstructure:"combine"`
}

// parseCallerSelection interprets the variantcaller entry of an algorithm
// block: a missing entry selects the default caller, an explicit empty
// entry selects no calling, a string selects a single caller, and a list
// selects multiple callers in request order.
func parseCallerSelection(v interface{}, present bool) (CallerSelection, error) {
	if !present {
		return SingleCaller(DefaultCaller), nil
	}
	switch v := v.(type) {
	case nil:
		return NoCaller(), nil
	case string:
		if v == "" {
			return NoCaller(), nil
		}
		return SingleCaller(v), nil
	case []interface{}:
		if len(v) == 0 {
			return NoCaller(), nil
		}
		ids := make([]string, len(v))
		for i, id := range v {
			s, ok := id.(string)
			if !ok || s == "" {
				return CallerSelection{}, fmt.Errorf("invalid variantcaller entry %v", id)
			}
			ids[i] = s
		}
		return MultipleCallers(ids), nil
	default:
		return CallerSelection{}, fmt.Errorf("invalid variantcaller configuration %v", v)
	}
}

// DefaultCaller is selected when a sample sheet does not name a caller.
const DefaultCaller = "gatk"

func buildSample(raw *rawSample, workDir string) (*Sample, error) {
	s := &Sample{
		Description:     raw.Description,
		Group:           raw.Group,
		SamRef:          raw.SamRef,
		Metadata:        raw.Metadata,
		GenomeResources: raw.GenomeResources,
		Validate:        raw.Validate,
		Combine:         raw.Combine,
		Dirs:            Dirs{Work: workDir},
	}
	if s.Description == "" {
		return nil, fmt.Errorf("sample without description in sample sheet")
	}
	switch bam := raw.WorkBam.(type) {
	case nil:
	case string:
		s.WorkBams = []string{bam}
	case []interface{}:
		for _, b := range bam {
			path, ok := b.(string)
			if !ok {
				return nil, fmt.Errorf("invalid work_bam entry %v for sample %v", b, s.Description)
			}
			s.WorkBams = append(s.WorkBams, path)
		}
	default:
		return nil, fmt.Errorf("invalid work_bam %v for sample %v", raw.WorkBam, s.Description)
	}
	if raw.Region != "" {
		r, err := region.Parse(raw.Region)
		if err != nil {
			return nil, fmt.Errorf("%v, for sample %v", err, s.Description)
		}
		s.Region = &r
	}
	selection, present := raw.Algorithm["variantcaller"]
	sel, err := parseCallerSelection(selection, present)
	if err != nil {
		return nil, fmt.Errorf("%v, for sample %v", err, s.Description)
	}
	delete(raw.Algorithm, "variantcaller")
	if err := mapstructure.Decode(raw.Algorithm, &s.Config.Algorithm); err != nil {
		return nil, fmt.Errorf("%v, while decoding algorithm block of sample %v", err, s.Description)
	}
	s.Config.Algorithm.VariantCaller = sel
	return s, nil
}

// LoadSampleSheet reads a YAML sample sheet and returns its samples as
// singleton groups, ready for caller expansion. workDir becomes the work
// directory of every sample.
func LoadSampleSheet(filename, workDir string) ([][]*Sample, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("%v, while reading sample sheet %v", err, filename)
	}
	var sheet struct {
		Samples []map[interface{}]interface{} `yaml:"samples"`
	}
	if err := yaml.Unmarshal(contents, &sheet); err != nil {
		return nil, fmt.Errorf("%v, while parsing sample sheet %v", err, filename)
	}
	if len(sheet.Samples) == 0 {
		return nil, fmt.Errorf("no samples in sample sheet %v", filename)
	}
	samples := make([][]*Sample, 0, len(sheet.Samples))
	for _, entry := range sheet.Samples {
		var raw rawSample
		if err := mapstructure.Decode(cleanValue(entry), &raw); err != nil {
			return nil, fmt.Errorf("%v, while decoding sample sheet %v", err, filename)
		}
		s, err := buildSample(&raw, workDir)
		if err != nil {
			return nil, fmt.Errorf("%v, in sample sheet %v", err, filename)
		}
		samples = append(samples, []*Sample{s})
	}
	return samples, nil
}
