// Package worker runs clue solves concurrently and paces requests to the
// query endpoint.
package worker

import (
	"context"
	"sync"
)

// Job is a unit of work executed by the pool.
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is the outcome of one Job.
type Result interface {
	GetError() error
}

type queuedJob struct {
	index int
	job   Job
}

type queuedResult struct {
	index  int
	result Result
}

// Pool executes jobs on a fixed number of workers. Results are returned in
// submission order.
type Pool struct {
	workers  int
	jobQueue chan queuedJob
	results  chan queuedResult

	mu        sync.Mutex
	submitted int
	collected []Result
	collector chan struct{}

	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
}

// NewPool creates a pool bound to parent. Cancelling parent stops the workers.
func NewPool(parent context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(parent)

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan queuedJob, workers*2),
		results:    make(chan queuedResult, workers*2),
		collector:  make(chan struct{}),
		ctx:        ctx,
		cancelFunc: cancel,
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
		case qj, ok := <-p.jobQueue:
			if !ok {
				return
			}
			res := qj.job.Execute(p.ctx)
			select {
			case p.results <- queuedResult{index: qj.index, result: res}:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// collect drains results as they arrive so workers never block on a full
// result channel while Submit is still feeding them.
func (p *Pool) collect() {
	defer close(p.collector)
	for qr := range p.results {
		p.mu.Lock()
		for len(p.collected) <= qr.index {
			p.collected = append(p.collected, nil)
		}
		p.collected[qr.index] = qr.result
		p.mu.Unlock()
	}
}

// Submit queues a job. It returns without queuing once the pool is cancelled.
func (p *Pool) Submit(job Job) {
	p.mu.Lock()
	index := p.submitted
	p.submitted++
	p.mu.Unlock()

	select {
	case <-p.ctx.Done():
	case p.jobQueue <- queuedJob{index: index, job: job}:
	}
}

// Wait closes the queue, waits for every worker and returns the results of
// completed jobs in submission order.
func (p *Pool) Wait() []Result {
	close(p.jobQueue)
	p.wg.Wait()
	p.closeResults()
	<-p.collector
	p.cancelFunc()

	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Result, 0, len(p.collected))
	for _, r := range p.collected {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// Shutdown cancels in-flight jobs and stops the workers.
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
	<-p.collector
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
