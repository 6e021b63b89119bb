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

// Package region represents the genomic intervals that act as the unit of
// parallel scatter for variant calling.
package region

import (
	"fmt"
	"strconv"
	"strings"
)

// Sentinel chromosome names for samples that are excluded from per-region
// splitting.
const (
	NoChrom    = "nochrom"
	NoAnalysis = "noanalysis"
)

// A Region is a bounded genomic interval: a chromosome plus a half-open
// [Start, End) coordinate range. End == 0 means the whole chromosome.
type Region struct {
	Chrom      string
	Start, End int
}

// IsSentinel tells whether the region is one of the exclusion sentinels
// rather than a real genomic interval.
func (r Region) IsSentinel() bool {
	return r.Chrom == NoChrom || r.Chrom == NoAnalysis
}

func (r Region) String() string {
	if r.End == 0 {
		return r.Chrom
	}
	return fmt.Sprintf("%s:%d-%d", r.Chrom, r.Start, r.End)
}

// SafeStr encodes the region as a string that is safe to embed in file
// names. The encoding is deterministic: identical regions always produce
// identical strings.
func (r Region) SafeStr() string {
	chrom := strings.Map(func(c rune) rune {
		switch c {
		case '/', '\\', ':', '|', ' ':
			return '_'
		}
		return c
	}, r.Chrom)
	if r.End == 0 {
		return chrom
	}
	return fmt.Sprintf("%s_%d_%d", chrom, r.Start, r.End)
}

// Parse reads a region from its string form, either "chrom" or
// "chrom:start-end".
func Parse(s string) (Region, error) {
	colon := strings.LastIndexByte(s, ':')
	if colon < 0 {
		if s == "" {
			return Region{}, fmt.Errorf("empty region")
		}
		return Region{Chrom: s}, nil
	}
	chrom, coords := s[:colon], s[colon+1:]
	dash := strings.IndexByte(coords, '-')
	if chrom == "" || dash < 0 {
		return Region{}, fmt.Errorf("invalid region %v", s)
	}
	start, err := strconv.Atoi(coords[:dash])
	if err != nil {
		return Region{}, fmt.Errorf("invalid region start in %v", s)
	}
	end, err := strconv.Atoi(coords[dash+1:])
	if err != nil {
		return Region{}, fmt.Errorf("invalid region end in %v", s)
	}
	if end <= start || start < 0 {
		return Region{}, fmt.Errorf("invalid region coordinates in %v", s)
	}
	return Region{Chrom: chrom, Start: start, End: end}, nil
}
