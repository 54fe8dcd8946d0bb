package worker

import (
	"context"
	"sync"
)

// Job is a unit of work run by the pool.
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is what a Job produces.
type Result interface {
	Err() error
}

type indexedJob struct {
	idx int
	job Job
}

type indexedResult struct {
	idx    int
	result Result
}

// Pool runs jobs on a fixed number of goroutines and returns their results
// in submission order. Submit must be called from a single goroutine.
type Pool struct {
	workers   int
	jobs      chan indexedJob
	results   chan indexedResult
	collected []Result
	done      chan struct{}
	submitted int
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	waitOnce  sync.Once
	closed    bool
	final     []Result
}

// NewPool creates a pool bound to ctx. Cancelling ctx stops the pool.
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers: workers,
		jobs:    make(chan indexedJob, workers*2),
		results: make(chan indexedResult, workers*2),
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the workers and the result collector.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	go p.collect()
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case j, ok := <-p.jobs:
			if !ok {
				return
			}
			r := j.job.Execute(p.ctx)
			p.results <- indexedResult{idx: j.idx, result: r}
		}
	}
}

func (p *Pool) collect() {
	defer close(p.done)
	for r := range p.results {
		for len(p.collected) <= r.idx {
			p.collected = append(p.collected, nil)
		}
		p.collected[r.idx] = r.result
	}
}

// Submit queues job. It reports false if the pool was cancelled or
// already waited on.
func (p *Pool) Submit(job Job) bool {
	if p.closed || p.ctx.Err() != nil {
		return false
	}
	select {
	case <-p.ctx.Done():
		return false
	case p.jobs <- indexedJob{idx: p.submitted, job: job}:
		p.submitted++
		return true
	}
}

// Wait stops accepting jobs, waits for the queued ones and returns the
// results in submission order. Jobs dropped by cancellation have no result.
// Calling Wait again returns the same results.
func (p *Pool) Wait() []Result {
	p.waitOnce.Do(func() {
		p.closed = true
		close(p.jobs)
		p.wg.Wait()
		close(p.results)
		<-p.done
		p.cancel()

		p.final = make([]Result, 0, len(p.collected))
		for _, r := range p.collected {
			if r != nil {
				p.final = append(p.final, r)
			}
		}
	})
	return p.final
}

// Shutdown cancels in-flight work and waits for the workers to exit.
func (p *Pool) Shutdown() []Result {
	p.cancel()
	return p.Wait()
}
