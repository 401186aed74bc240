package systems

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima-assets/engine/core"
)

// Job describes a unit of work for the job system.
type Job struct {
	// Name is used in logs only.
	Name string
	// Run is invoked on a worker goroutine. Required.
	Run func(ctx context.Context) error
	// OnFailure is invoked with the error returned (or panic recovered) from Run. Optional.
	OnFailure func(err error)
	// OnComplete is invoked after a successful Run. Optional.
	OnComplete func()
}

type JobSystem struct {
	numWorkers int
	jobQueue   chan Job
	wg         sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	// guards closed and sends on jobQueue
	mu     sync.RWMutex
	closed bool
}

var ErrNoWorkers = errors.New("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = errors.New("attempting to create worker pool with a negative channel size")
var ErrJobSystemClosed = errors.New("job system is shut down")

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   make(chan Job, channelSize),
		ctx:        ctx,
		cancel:     cancel,
	}

	js.start()
	core.LogDebug("job system started with %d workers", numWorkers)

	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				js.run(job)
			}
		}()
	}
}

func (js *JobSystem) run(job Job) {
	err := safeRun(js.ctx, job)
	if err != nil {
		core.LogDebug("job '%s' failed: %s", job.Name, err)
		if job.OnFailure != nil {
			job.OnFailure(err)
		}
		return
	}
	if job.OnComplete != nil {
		job.OnComplete()
	}
}

func safeRun(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job '%s' panicked: %v", job.Name, r)
		}
	}()
	return job.Run(ctx)
}

/**
 * @brief Shuts the job system down. The context handed to jobs is cancelled
 * first; jobs still queued run with the cancelled context so they can bail out.
 */
func (js *JobSystem) Shutdown() error {
	js.cancel()

	js.mu.Lock()
	if js.closed {
		js.mu.Unlock()
		return nil
	}
	js.closed = true
	close(js.jobQueue)
	js.mu.Unlock()

	js.wg.Wait()
	return nil
}

// AddWorkNonBlocking queues the job and returns immediately, spilling to a
// goroutine when the queue is full.
func (js *JobSystem) AddWorkNonBlocking(job Job) error {
	js.mu.RLock()
	if js.closed {
		js.mu.RUnlock()
		return ErrJobSystemClosed
	}
	select {
	case js.jobQueue <- job:
		js.mu.RUnlock()
		return nil
	default:
	}
	js.mu.RUnlock()

	go func() {
		if err := js.Submit(job); err != nil && job.OnFailure != nil {
			job.OnFailure(err)
		}
	}()
	return nil
}

/**
 * @brief Submits the provided job to be queued for execution. Blocks while the queue is full.
 */
func (js *JobSystem) Submit(job Job) error {
	js.mu.RLock()
	defer js.mu.RUnlock()
	if js.closed {
		return ErrJobSystemClosed
	}
	js.jobQueue <- job
	return nil
}
