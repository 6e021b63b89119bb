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

package vcf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"github.com/exascience/pargo/pipeline"

	"github.com/genoscale/varcall/internal"
)

// concatSource feeds the records of a sequence of call files into a
// pipeline, in file order, with every header skipped.
type concatSource struct {
	files   []string
	index   int
	current *InputFile
	data    interface{}
	err     error
}

func (cs *concatSource) Err() error {
	return cs.err
}

func (cs *concatSource) Prepare(_ context.Context) int {
	return -1
}

func (cs *concatSource) fail(err error) int {
	if cs.current != nil {
		_ = cs.current.Close()
		cs.current = nil
	}
	cs.err = err
	cs.data = nil
	return 0
}

func (cs *concatSource) Fetch(size int) int {
	batch := make([]string, 0, size)
	for len(batch) < size {
		if cs.current == nil {
			if cs.index >= len(cs.files) {
				break
			}
			in, err := Open(cs.files[cs.index])
			if err != nil {
				return cs.fail(err)
			}
			cs.index++
			if err := in.SkipHeader(); err != nil {
				_ = in.Close()
				return cs.fail(err)
			}
			cs.current = in
		}
		record, err := cs.current.ReadRecord()
		if err == io.EOF {
			if err := cs.current.Close(); err != nil {
				cs.current = nil
				return cs.fail(err)
			}
			cs.current = nil
			continue
		}
		if err != nil {
			return cs.fail(err)
		}
		batch = append(batch, record)
	}
	cs.data = batch
	return len(batch)
}

func (cs *concatSource) Data() interface{} {
	return cs.data
}

// checkParts verifies that every expected per-region call file is present,
// as a regular file or a symbolic link. A missing part is fatal: merging
// around it would silently corrupt the combined call set.
func checkParts(parts []string) error {
	present := bitset.New(uint(len(parts)))
	for i, part := range parts {
		if internal.FileExists(part) || internal.LExists(part) {
			present.Set(uint(i))
		}
	}
	if present.Count() == uint(len(parts)) {
		return nil
	}
	var missing []string
	for i, e := present.NextClear(0); e && i < uint(len(parts)); i, e = present.NextClear(i + 1) {
		missing = append(missing, parts[i])
	}
	return fmt.Errorf("missing per-region call files: %v", strings.Join(missing, ", "))
}

// ConcatVariantFiles concatenates per-region call files into one call file,
// preserving the given region order. The header is taken from the first
// part. The combined file becomes visible under outFile only when it is
// complete.
func ConcatVariantFiles(parts []string, outFile string) (funcErr error) {
	if len(parts) == 0 {
		return fmt.Errorf("no call files to concatenate into %v", outFile)
	}
	if err := checkParts(parts); err != nil {
		return fmt.Errorf("%v, while concatenating into %v", err, outFile)
	}
	first, err := Open(parts[0])
	if err != nil {
		return err
	}
	header, err := first.ParseHeader()
	if closeErr := first.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("%v, while reading header of %v", err, parts[0])
	}
	// the temp name keeps the final extension so Create picks the right
	// compression for the target
	tmpBase, tmpExt := internal.SplitextPlus(outFile)
	tmpFile := tmpBase + ".part" + tmpExt
	out, err := Create(tmpFile)
	if err != nil {
		return err
	}
	defer func() {
		if funcErr != nil {
			_ = os.Remove(tmpFile)
		}
	}()
	for _, line := range header {
		if err := out.WriteLine(line); err != nil {
			_ = out.Close()
			return fmt.Errorf("%v, while writing header to %v", err, tmpFile)
		}
	}

	var p pipeline.Pipeline
	p.Source(&concatSource{files: parts})
	p.SetVariableBatchSize(256, 2048)
	p.Add(
		pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
			var buf bytes.Buffer
			for _, record := range data.([]string) {
				buf.WriteString(record)
				buf.WriteByte('\n')
			}
			return buf.Bytes()
		})),
		pipeline.StrictOrd(pipeline.Receive(func(_ int, data interface{}) interface{} {
			if _, err := out.Write(data.([]byte)); err != nil {
				p.SetErr(err)
			}
			return nil
		})),
	)
	p.Run()
	if err := p.Err(); err != nil {
		_ = out.Close()
		return fmt.Errorf("%v, while concatenating call files into %v", err, outFile)
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Rename(tmpFile, outFile)
}
