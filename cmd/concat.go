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

package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/genoscale/varcall/vcf"
)

// ConcatHelp is the help string for this command.
const ConcatHelp = "Concat parameters:\n" +
	"varcall concat-variant-files output.vcf.gz part.vcf.gz...\n"

// ConcatVariantFiles implements the varcall concat-variant-files command.
func ConcatVariantFiles() error {
	if len(os.Args) < 4 {
		fmt.Fprintln(os.Stderr, "Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, ConcatHelp)
		os.Exit(1)
	}

	output := getFilename(os.Args[2], ConcatHelp)
	parts := make([]string, 0, len(os.Args)-3)
	for _, part := range os.Args[3:] {
		parts = append(parts, getFilename(part, ConcatHelp))
	}

	var sanityChecksFailed bool
	for _, part := range parts {
		if !checkExist("", part) {
			sanityChecksFailed = true
		}
	}
	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, ConcatHelp)
		os.Exit(1)
	}

	log.Println("Concatenating", len(parts), "call files into", output)

	return vcf.ConcatVariantFiles(parts, output)
}
