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

import "fmt"

// CallerExecutionError reports that a calling backend itself failed. The
// core performs no recovery; the execution engine decides whether to retry.
type CallerExecutionError struct {
	Caller string
	Region string
	Err    error
}

func (e *CallerExecutionError) Error() string {
	return fmt.Sprintf("variant caller %v failed on %v: %v", e.Caller, e.Region, e.Err)
}

func (e *CallerExecutionError) Unwrap() error {
	return e.Err
}

// MalformedSampleError reports a work item that lacks fields required for
// calling. It is raised before any external process is spawned.
type MalformedSampleError struct {
	Sample string
	Reason string
}

func (e *MalformedSampleError) Error() string {
	return fmt.Sprintf("malformed sample %v: %v", e.Sample, e.Reason)
}

// Permanent marks the error as not worth retrying.
func (e *MalformedSampleError) Permanent() bool {
	return true
}
