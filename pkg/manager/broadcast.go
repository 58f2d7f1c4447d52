package manager

import (
	"sync"
	"time"

	"craftd/pkg/codec"
	"craftd/pkg/logger"

	"go.uber.org/zap"
)

// PollInterval is the broadcaster's delta computation period. Cancellation
// of a polling task takes effect within one interval.
const PollInterval = 100 * time.Millisecond

// StatusSubscriber receives a report whenever the instance's status
// changes. A returned error evicts the subscriber.
type StatusSubscriber interface {
	SendStatus(codec.StatusReport) error
}

// ConsoleSubscriber receives batches of new console entries in append
// order. A returned error evicts the subscriber.
type ConsoleSubscriber interface {
	SendConsole(server string, entries []codec.ConsoleEntry) error
}

// Broadcaster fans out status and console deltas to any number of
// subscribers per instance. It never mutates instance state: each polling
// task is a pure reader holding its own console cursor and last-seen
// status. A task runs only while the instance has at least one subscriber
// of either kind.
type Broadcaster struct {
	mu       sync.Mutex
	interval time.Duration
	tasks    map[string]*pollTask
	logger   *zap.SugaredLogger
}

type pollTask struct {
	inst        *ServerInstance
	statusSubs  map[StatusSubscriber]struct{}
	consoleSubs map[ConsoleSubscriber]struct{}
	stop        chan struct{}

	// Snapshot taken at task creation, so only changes after the first
	// subscription get delivered. Owned by the poll goroutine afterwards.
	lastStatus codec.ServerState
	cursor     uint64
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		interval: PollInterval,
		tasks:    make(map[string]*pollTask),
		logger:   logger.Logging("broadcast"),
	}
}

func (b *Broadcaster) task(inst *ServerInstance) *pollTask {
	t, ok := b.tasks[inst.ID]
	if !ok {
		t = &pollTask{
			inst:        inst,
			statusSubs:  make(map[StatusSubscriber]struct{}),
			consoleSubs: make(map[ConsoleSubscriber]struct{}),
			stop:        make(chan struct{}),
			lastStatus:  inst.Status(),
		}
		_, t.cursor = inst.ConsoleSince(^uint64(0))
		b.tasks[inst.ID] = t
		go b.poll(t)
		b.logger.Debugf("Polling task started for %s", inst.ID)
	}
	return t
}

// SubscribeStatus registers sub for status changes on inst. Idempotent.
func (b *Broadcaster) SubscribeStatus(inst *ServerInstance, sub StatusSubscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.task(inst).statusSubs[sub] = struct{}{}
}

// SubscribeConsole registers sub for console deltas on inst. Idempotent.
func (b *Broadcaster) SubscribeConsole(inst *ServerInstance, sub ConsoleSubscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.task(inst).consoleSubs[sub] = struct{}{}
}

func (b *Broadcaster) UnsubscribeStatus(inst *ServerInstance, sub StatusSubscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if t, ok := b.tasks[inst.ID]; ok {
		delete(t.statusSubs, sub)
		b.reapLocked(inst.ID, t)
	}
}

func (b *Broadcaster) UnsubscribeConsole(inst *ServerInstance, sub ConsoleSubscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if t, ok := b.tasks[inst.ID]; ok {
		delete(t.consoleSubs, sub)
		b.reapLocked(inst.ID, t)
	}
}

// reapLocked cancels the polling task once the last subscriber of either
// kind is gone. Call with b.mu held.
func (b *Broadcaster) reapLocked(id string, t *pollTask) {
	if len(t.statusSubs) == 0 && len(t.consoleSubs) == 0 {
		close(t.stop)
		delete(b.tasks, id)
		b.logger.Debugf("Polling task stopped for %s", id)
	}
}

// Shutdown cancels every polling task and drops all subscribers.
func (b *Broadcaster) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, t := range b.tasks {
		close(t.stop)
		delete(b.tasks, id)
	}
}

func (b *Broadcaster) poll(t *pollTask) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
		}

		status := t.inst.Status()
		if status != t.lastStatus {
			t.lastStatus = status
			b.deliverStatus(t, t.inst.StatusReport())
		}

		var entries []codec.ConsoleEntry
		entries, t.cursor = t.inst.ConsoleSince(t.cursor)
		if len(entries) > 0 {
			b.deliverConsole(t, entries)
		}
	}
}

// deliverStatus pushes a report to every status subscriber. Failing
// subscribers are evicted; the rest still get their delivery.
func (b *Broadcaster) deliverStatus(t *pollTask, report codec.StatusReport) {
	b.mu.Lock()
	subs := make([]StatusSubscriber, 0, len(t.statusSubs))
	for sub := range t.statusSubs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		if err := sub.SendStatus(report); err != nil {
			b.logger.Debugf("Dropping status subscriber for %s: %v", t.inst.ID, err)
			b.UnsubscribeStatus(t.inst, sub)
		}
	}
}

func (b *Broadcaster) deliverConsole(t *pollTask, entries []codec.ConsoleEntry) {
	b.mu.Lock()
	subs := make([]ConsoleSubscriber, 0, len(t.consoleSubs))
	for sub := range t.consoleSubs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		if err := sub.SendConsole(t.inst.ID, entries); err != nil {
			b.logger.Debugf("Dropping console subscriber for %s: %v", t.inst.ID, err)
			b.UnsubscribeConsole(t.inst, sub)
		}
	}
}
