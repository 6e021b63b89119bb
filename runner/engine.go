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

// Package runner is the generic "split work by region, run in parallel,
// recombine" engine. It knows nothing about variant calling: it receives a
// scatter function, a batching function, and the names of a dispatch and a
// merge operation, and drives work items through them.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/sync/errgroup"

	"github.com/genoscale/varcall/region"
	"github.com/genoscale/varcall/sample"
)

type (
	// A Part is one region-scoped piece of a work item: the region to call
	// and the file its calls go to.
	Part struct {
		Region region.Region
		File   string
	}

	// A SplitFn decides how one work item scatters: it returns the item's
	// final output file and the region parts still to be computed. An empty
	// output file means the item takes no part in splitting and passes
	// through unchanged; an empty part list with a non-empty output file
	// means the output already exists and is reused as is.
	SplitFn func(*sample.Sample) (string, []Part)

	// A GroupFn batches work items that belong together (tumor/normal
	// pairs) before splitting.
	GroupFn func([][]*sample.Sample) [][]*sample.Sample

	// A DispatchFn computes one part of one work item. It runs in total
	// isolation: it reads only its inputs and writes only to outFile and
	// private intermediates, and returns the annotated record as a
	// singleton.
	DispatchFn func(ctx context.Context, data *sample.Sample, reg *region.Region, outFile string) ([]*sample.Sample, error)

	// A CombineFn merges the part files of one work item into outFile,
	// preserving part order.
	CombineFn func(outFile string, parts []Part, data *sample.Sample) error

	// A Request describes one grouped split/run/combine round.
	Request struct {
		Items           [][]*sample.Sample
		Split           SplitFn
		Group           GroupFn
		DispatchOp      string
		CombineOp       string
		FileKey         string   // record field that receives the final output file
		PropagateFields []string // fields copied from input to output records
	}

	// A Runner executes split/run/combine requests. Implementations may run
	// dispatches in parallel; dispatch operations must not rely on shared
	// in-memory state.
	Runner interface {
		GroupedSplitCombine(ctx context.Context, req Request) ([][]*sample.Sample, error)
	}

	// Config tunes the local engine. It is read from the environment with
	// the VARCALL prefix (VARCALL_WORKERS and so on).
	Config struct {
		Workers       int           `envconfig:"WORKERS"`
		MaxRetries    uint64        `envconfig:"MAX_RETRIES" default:"2"`
		RetryInterval time.Duration `envconfig:"RETRY_INTERVAL" default:"1s"`
	}

	// Local runs dispatches in parallel goroutines within this process.
	Local struct {
		cfg      Config
		dispatch map[string]DispatchFn
		combine  map[string]CombineFn
	}
)

// ConfigFromEnv reads the engine configuration from the environment.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	err := envconfig.Process("varcall", &cfg)
	return cfg, err
}

// NewLocal returns a local engine without any registered operations.
func NewLocal(cfg Config) *Local {
	return &Local{
		cfg:      cfg,
		dispatch: make(map[string]DispatchFn),
		combine:  make(map[string]CombineFn),
	}
}

// RegisterDispatch makes a dispatch operation available under name.
func (eng *Local) RegisterDispatch(name string, fn DispatchFn) {
	eng.dispatch[name] = fn
}

// RegisterCombine makes a merge operation available under name.
func (eng *Local) RegisterCombine(name string, fn CombineFn) {
	eng.combine[name] = fn
}

// isPermanent reports whether an error in the chain declares itself not
// worth retrying.
func isPermanent(err error) bool {
	for err != nil {
		if p, ok := err.(interface{ Permanent() bool }); ok && p.Permanent() {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// attachFileKey stores the final output file under the named record field.
func attachFileKey(data *sample.Sample, key, outFile string) error {
	switch key {
	case "vrn_file":
		data.VrnFile = outFile
	default:
		return fmt.Errorf("unknown file key %v", key)
	}
	return nil
}

// propagateFields copies the named fields from the input record onto the
// record a dispatch operation returned, mirroring what a distributed engine
// does when results come back from another machine.
func propagateFields(dst, src *sample.Sample, fields []string) error {
	for _, field := range fields {
		switch field {
		case "region":
			if src.Region != nil {
				r := *src.Region
				dst.Region = &r
			} else {
				dst.Region = nil
			}
		case "sam_ref":
			dst.SamRef = src.SamRef
		case "config":
			dst.Config = src.Clone().Config
		default:
			return fmt.Errorf("unknown propagated field %v", field)
		}
	}
	return nil
}

type splitUnit struct {
	index   int
	input   *sample.Sample
	outFile string
	parts   []Part
	results []*sample.Sample
}

func (eng *Local) retryPolicy() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = eng.cfg.RetryInterval
	policy.MaxElapsedTime = 0
	return backoff.WithMaxRetries(policy, eng.cfg.MaxRetries)
}

// GroupedSplitCombine batches the work items, scatters each through the
// split function, runs the dispatch operation for every region part in
// parallel, and merges part files back into one output per item. Items the
// split function skips pass through unchanged; items whose output already
// exists only get the file key attached. Failed dispatches are retried with
// exponential backoff unless the error is permanent.
func (eng *Local) GroupedSplitCombine(ctx context.Context, req Request) ([][]*sample.Sample, error) {
	dispatch, ok := eng.dispatch[req.DispatchOp]
	if !ok {
		return nil, fmt.Errorf("unknown dispatch operation %v", req.DispatchOp)
	}
	combine, ok := eng.combine[req.CombineOp]
	if !ok {
		return nil, fmt.Errorf("unknown merge operation %v", req.CombineOp)
	}
	items := req.Items
	if req.Group != nil {
		items = req.Group(items)
	}
	out := make([][]*sample.Sample, len(items))
	var units []*splitUnit
	for i, item := range items {
		data := item[0]
		outFile, parts := req.Split(data)
		switch {
		case outFile == "":
			out[i] = item
		case len(parts) == 0:
			if err := attachFileKey(data, req.FileKey, outFile); err != nil {
				return nil, err
			}
			out[i] = []*sample.Sample{data}
		default:
			units = append(units, &splitUnit{
				index:   i,
				input:   data,
				outFile: outFile,
				parts:   parts,
				results: make([]*sample.Sample, len(parts)),
			})
		}
	}
	workers := eng.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for _, u := range units {
		for j := range u.parts {
			u, j := u, j
			group.Go(func() error {
				part := u.parts[j]
				task := uuid.New()
				log.Printf("task %v: %v %v %v", task, req.DispatchOp, u.input.Name(), part.Region)
				var results []*sample.Sample
				op := func() error {
					if err := gctx.Err(); err != nil {
						return backoff.Permanent(err)
					}
					// each attempt works on its own copy of the record
					res, err := dispatch(gctx, u.input.Clone(), &part.Region, part.File)
					if err != nil {
						if isPermanent(err) {
							return backoff.Permanent(err)
						}
						log.Printf("task %v: retrying: %v", task, err)
						return err
					}
					results = res
					return nil
				}
				if err := backoff.Retry(op, eng.retryPolicy()); err != nil {
					return fmt.Errorf("%v, while running %v for %v on %v", err, req.DispatchOp, u.input.Name(), part.Region)
				}
				if len(results) != 1 {
					return fmt.Errorf("operation %v returned %v results for %v, expected 1", req.DispatchOp, len(results), u.input.Name())
				}
				u.results[j] = results[0]
				return nil
			})
		}
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	for _, u := range units {
		if err := combine(u.outFile, u.parts, u.input); err != nil {
			return nil, fmt.Errorf("%v, while running %v for %v", err, req.CombineOp, u.input.Name())
		}
		final := u.results[0]
		if err := propagateFields(final, u.input, req.PropagateFields); err != nil {
			return nil, err
		}
		if err := attachFileKey(final, req.FileKey, u.outFile); err != nil {
			return nil, err
		}
		out[u.index] = []*sample.Sample{final}
	}
	return out, nil
}
