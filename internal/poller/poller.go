// Package poller runs fixed-interval refresh jobs.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Job is a named function run every Interval.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context)
}

// Poller owns one ticker goroutine per job.
type Poller struct {
	jobs []Job
	log  zerolog.Logger

	mu      sync.Mutex
	runs    map[string]int
	started bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a poller for jobs. Jobs with a non-positive interval are
// ignored.
func New(log zerolog.Logger, jobs ...Job) *Poller {
	ctx, cancel := context.WithCancel(context.Background())

	var valid []Job
	for _, j := range jobs {
		if j.Interval > 0 && j.Run != nil {
			valid = append(valid, j)
		}
	}

	return &Poller{
		jobs:   valid,
		log:    log.With().Str("component", "poller").Logger(),
		runs:   make(map[string]int),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins ticking. The first run of each job happens one interval after
// Start; callers do their own initial refresh. Start is a no-op when already
// started.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	for _, j := range p.jobs {
		p.wg.Add(1)
		go p.loop(j)
	}
	p.log.Debug().Int("jobs", len(p.jobs)).Msg("poller started")
}

// Stop halts all jobs and waits for in-flight runs to return.
func (p *Poller) Stop() {
	p.cancel()
	p.wg.Wait()
	p.log.Debug().Msg("poller stopped")
}

func (p *Poller) loop(j Job) {
	defer p.wg.Done()

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			j.Run(p.ctx)
			p.mu.Lock()
			p.runs[j.Name]++
			p.mu.Unlock()
		}
	}
}

// Runs returns how many times each job has completed.
func (p *Poller) Runs() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[string]int, len(p.runs))
	for k, v := range p.runs {
		out[k] = v
	}
	return out
}
