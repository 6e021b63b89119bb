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

// Package vcf reads and writes call files at the line level: enough to
// recombine per-region call files into whole-sample ones. The records
// themselves are produced and consumed by the calling backends and stay
// opaque here.
package vcf

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

const fileFormatLinePrefix = "##fileformat=VCF"

// An InputFile is a call file opened for reading, transparently
// decompressed when its name ends in .gz.
type InputFile struct {
	name   string
	file   *os.File
	gz     *gzip.Reader
	reader *bufio.Reader
}

// Open opens a call file for reading.
func Open(name string) (*InputFile, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	f := &InputFile{name: name, file: file}
	if strings.HasSuffix(name, ".gz") {
		if f.gz, err = gzip.NewReader(file); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("%v, while opening %v", err, name)
		}
		f.reader = bufio.NewReader(f.gz)
	} else {
		f.reader = bufio.NewReader(file)
	}
	return f, nil
}

// Close closes the underlying file.
func (f *InputFile) Close() error {
	if f.gz != nil {
		if err := f.gz.Close(); err != nil {
			_ = f.file.Close()
			return err
		}
	}
	return f.file.Close()
}

func (f *InputFile) getLine() (string, error) {
	line, err := f.reader.ReadString('\n')
	if err == nil {
		line = line[:len(line)-1]
	} else if err == io.EOF && line != "" {
		err = nil
	}
	return line, err
}

// ParseHeader reads the header lines of the call file, leaving the reader
// positioned at the first record.
func (f *InputFile) ParseHeader() ([]string, error) {
	var lines []string
	for {
		data, err := f.reader.Peek(1)
		if err == io.EOF || (err == nil && data[0] != '#') {
			break
		}
		if err != nil {
			return nil, err
		}
		line, err := f.getLine()
		if err != nil {
			return nil, fmt.Errorf("%v, while reading header of %v", err, f.name)
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 || !strings.HasPrefix(lines[0], fileFormatLinePrefix) {
		return nil, fmt.Errorf("invalid first line in VCF file %v", f.name)
	}
	return lines, nil
}

// SkipHeader discards the header lines of the call file.
func (f *InputFile) SkipHeader() error {
	_, err := f.ParseHeader()
	return err
}

// ReadRecord returns the next record line, or io.EOF after the last one.
func (f *InputFile) ReadRecord() (string, error) {
	for {
		line, err := f.getLine()
		if err != nil {
			return "", err
		}
		if line != "" {
			return line, nil
		}
	}
}

// An OutputFile is a call file opened for writing, transparently
// compressed when its name ends in .gz.
type OutputFile struct {
	name   string
	file   *os.File
	gz     *gzip.Writer
	writer *bufio.Writer
}

// Create creates a call file for writing.
func Create(name string) (*OutputFile, error) {
	file, err := os.Create(name)
	if err != nil {
		return nil, err
	}
	f := &OutputFile{name: name, file: file}
	if strings.HasSuffix(name, ".gz") {
		f.gz = gzip.NewWriter(file)
		f.writer = bufio.NewWriter(f.gz)
	} else {
		f.writer = bufio.NewWriter(file)
	}
	return f, nil
}

func (f *OutputFile) Write(p []byte) (int, error) {
	return f.writer.Write(p)
}

// WriteLine writes one line, adding the line terminator.
func (f *OutputFile) WriteLine(line string) error {
	if _, err := f.writer.WriteString(line); err != nil {
		return err
	}
	return f.writer.WriteByte('\n')
}

// Close flushes and closes the underlying file.
func (f *OutputFile) Close() error {
	var errs []error
	errs = append(errs, f.writer.Flush())
	if f.gz != nil {
		errs = append(errs, f.gz.Close())
	}
	errs = append(errs, f.file.Close())
	for _, err := range errs {
		if err != nil {
			return fmt.Errorf("%v, while closing %v", err, f.name)
		}
	}
	return nil
}
