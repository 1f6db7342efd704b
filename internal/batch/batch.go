// Package batch runs independent archive jobs on a bounded worker pool.
//
// Jobs share nothing. A failing job never stops its siblings; every job
// reports its own error in its own Result.
package batch

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Job is one unit of work: an input path and the task-scoped output path.
type Job struct {
	Input  string
	Output string
}

// Result is the outcome of one Job.
type Result struct {
	Job
	Err error
}

// Func processes one job.
type Func func(Job) error

// Run executes fn for every job with at most workers in flight and returns
// results in job order. workers <= 0 means runtime.NumCPU().
func Run(jobs []Job, workers int, fn Func) []Result {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]Result, len(jobs))

	var g errgroup.Group
	g.SetLimit(workers)

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			results[i] = Result{Job: job, Err: runOne(fn, job)}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	return results
}

func runOne(fn Func, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic processing %s: %v", job.Input, r)
		}
	}()
	return fn(job)
}

// Failed returns the results that carry an error.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}
