package sync

import (
	"context"
	"fmt"
	gosync "sync"

	"github.com/nhle/notesync/internal/remote"
)

// TaskKind identifies a request to the coordinator.
type TaskKind int

const (
	TaskSync TaskKind = iota
	TaskTest
	TaskMerge
	TaskEnd
)

func (k TaskKind) String() string {
	switch k {
	case TaskSync:
		return "sync"
	case TaskTest:
		return "test"
	case TaskMerge:
		return "merge"
	case TaskEnd:
		return "end"
	default:
		return fmt.Sprintf("task(%d)", int(k))
	}
}

// Task is a request submitted to the coordinator.
type Task struct {
	Kind TaskKind

	// UUID names the note for TaskMerge.
	UUID string
}

func SyncTask() Task             { return Task{Kind: TaskSync} }
func TestTask() Task             { return Task{Kind: TaskTest} }
func MergeTask(uuid string) Task { return Task{Kind: TaskMerge, UUID: uuid} }
func EndTask() Task              { return Task{Kind: TaskEnd} }

// OutcomeKind classifies a coordinator report.
type OutcomeKind int

const (
	OutcomeBusy OutcomeKind = iota
	OutcomeSuccess
	OutcomeFailure
	OutcomeEnd
)

// Outcome reports the result of a task, or that it was rejected.
type Outcome struct {
	Kind    OutcomeKind
	Task    TaskKind
	Message string
}

// Coordinator admits one task at a time. A task submitted while another is
// running is answered with OutcomeBusy and dropped. End waits for the
// running task, reports OutcomeEnd and closes the outcome channel.
type Coordinator struct {
	settings
	engine   *Engine
	resolver *Resolver
	dialer   remote.Dialer

	tasks    chan Task
	work     chan Task
	results  chan Outcome
	outcomes chan Outcome
	done     chan struct{}

	mu      gosync.Mutex
	started bool
	ended   bool
}

// NewCoordinator creates a Coordinator. Call Start before submitting.
func NewCoordinator(engine *Engine, resolver *Resolver, dialer remote.Dialer, opts ...Option) *Coordinator {
	return &Coordinator{
		settings: applyOptions(opts),
		engine:   engine,
		resolver: resolver,
		dialer:   dialer,
		tasks:    make(chan Task, 16),
		work:     make(chan Task),
		results:  make(chan Outcome),
		outcomes: make(chan Outcome, 16),
		done:     make(chan struct{}),
	}
}

// Start launches the dispatcher and worker goroutines.
func (c *Coordinator) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return
	}
	c.started = true

	go c.worker()
	go c.dispatch()
}

// Submit queues a task. It is safe to call from many goroutines and
// reports false once End has been submitted.
func (c *Coordinator) Submit(t Task) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ended {
		return false
	}
	if t.Kind == TaskEnd {
		c.ended = true
	}
	c.tasks <- t
	return true
}

// Outcomes returns the channel of reports. It is closed after OutcomeEnd.
func (c *Coordinator) Outcomes() <-chan Outcome {
	return c.outcomes
}

// Done is closed once the coordinator has shut down.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

func (c *Coordinator) dispatch() {
	busy := false
	ending := false

	for {
		select {
		case t := <-c.tasks:
			switch {
			case t.Kind == TaskEnd:
				ending = true
				if !busy {
					c.finish()
					return
				}
			case busy:
				c.logger.Debug("task rejected while busy", "task", t.Kind)
				c.outcomes <- Outcome{Kind: OutcomeBusy, Task: t.Kind, Message: "busy"}
			default:
				busy = true
				c.work <- t
			}

		case o := <-c.results:
			busy = false
			c.outcomes <- o
			if ending {
				c.finish()
				return
			}
		}
	}
}

func (c *Coordinator) finish() {
	close(c.work)
	c.outcomes <- Outcome{Kind: OutcomeEnd, Task: TaskEnd}
	close(c.outcomes)
	close(c.done)
}

func (c *Coordinator) worker() {
	for t := range c.work {
		c.results <- c.run(t)
	}
}

// run executes one task and converts its error into a failure report.
func (c *Coordinator) run(t Task) Outcome {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	msg, err := c.execute(ctx, t)
	if err != nil {
		c.logger.Error("task failed", "task", t.Kind, "uuid", t.UUID, "error", err)
		return Outcome{Kind: OutcomeFailure, Task: t.Kind, Message: err.Error()}
	}
	return Outcome{Kind: OutcomeSuccess, Task: t.Kind, Message: msg}
}

func (c *Coordinator) execute(ctx context.Context, t Task) (string, error) {
	switch t.Kind {
	case TaskSync:
		sum, err := c.engine.Sync(ctx)
		if err != nil {
			return "", err
		}
		return sum.String(), nil

	case TaskTest:
		return c.test(ctx)

	case TaskMerge:
		result, err := c.resolver.Merge(ctx, t.UUID)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("merged %s: kept 1 copy, discarded %d", result.UUID, len(result.Discarded)), nil

	default:
		return "", fmt.Errorf("unknown task %s", t.Kind)
	}
}

// test checks that the account can log in and see its note folders.
func (c *Coordinator) test(ctx context.Context) (string, error) {
	sess, err := c.dialer.Dial(ctx)
	if err != nil {
		return "", fmt.Errorf("connecting: %w", err)
	}
	defer logout(sess, c.logger)

	folders, err := sess.ListFolders(ctx, c.folderPattern)
	if err != nil {
		return "", fmt.Errorf("listing folders: %w", err)
	}
	return fmt.Sprintf("connection ok, %d note folders", len(folders)), nil
}
