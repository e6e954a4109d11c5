package worker

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/LuckysHorizon/SmartReminder/internal/domain"
	"github.com/LuckysHorizon/SmartReminder/internal/metrics"
	"github.com/LuckysHorizon/SmartReminder/internal/shared/errors"
	"github.com/LuckysHorizon/SmartReminder/internal/shared/logger"
)

// PageHub is the set of open page contexts
type PageHub interface {
	Broadcast(msg []byte)
	ClientCount() int
}

// PendingQueue is the durable replay queue for actions that arrived while no
// page was open
type PendingQueue interface {
	Enqueue(ctx context.Context, action domain.NotificationAction) error
	Drain(ctx context.Context) ([]domain.NotificationAction, error)
}

// Waker asks the scheduler for an ad hoc evaluation pass
type Waker interface {
	Wake(reason string)
}

// Worker is the background delivery context. While registered it owns alert
// delivery (alerts survive page closure) and relays notification actions to
// open pages, queueing them for replay when none are open.
type Worker struct {
	hub     PageHub
	queue   PendingQueue
	log     *logger.Logger
	show    chan *domain.DisplayNotification
	waker   Waker
	running atomic.Bool
	stopCh  chan struct{}
	done    chan struct{}
}

// NewWorker creates a new background delivery worker
func NewWorker(hub PageHub, queue PendingQueue, showQueueSize int, log *logger.Logger) *Worker {
	if showQueueSize <= 0 {
		showQueueSize = 64
	}
	return &Worker{
		hub:   hub,
		queue: queue,
		log:   log,
		show:  make(chan *domain.DisplayNotification, showQueueSize),
	}
}

// SetWaker wires the scheduler in after construction (the scheduler's
// evaluator chain depends on the worker, so this edge is set last)
func (w *Worker) SetWaker(waker Waker) {
	w.waker = waker
}

// Start registers the worker and begins delivering queued alerts
func (w *Worker) Start() {
	if !w.running.CompareAndSwap(false, true) {
		w.log.Warn("Worker already started")
		return
	}
	w.stopCh = make(chan struct{})
	w.done = make(chan struct{})
	go w.run()
	w.log.Info("Background delivery worker started")
}

// Stop unregisters the worker and waits for the delivery loop to exit
func (w *Worker) Stop() {
	if !w.running.CompareAndSwap(true, false) {
		return
	}
	close(w.stopCh)
	<-w.done
	w.log.Info("Background delivery worker stopped")
}

// Registered reports whether the worker delivery channel is available
func (w *Worker) Registered() bool {
	return w.running.Load()
}

// Show queues an alert for delivery through the worker channel
func (w *Worker) Show(ctx context.Context, n *domain.DisplayNotification) error {
	if !w.Registered() {
		return errors.NewInternalError("worker not registered", nil)
	}
	select {
	case w.show <- n:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return errors.NewInternalError("worker show queue full", nil)
	}
}

func (w *Worker) run() {
	defer close(w.done)
	for {
		select {
		case n := <-w.show:
			w.deliver(n)
		case <-w.stopCh:
			return
		}
	}
}

func (w *Worker) deliver(n *domain.DisplayNotification) {
	msg := domain.WorkerMessage{
		Kind:         domain.MessageShowNotification,
		Notification: n,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		w.log.Error("Failed to encode alert", "error", err)
		return
	}
	w.hub.Broadcast(payload)
	w.log.Debug("Delivered alert", "title", n.Title, "pages", w.hub.ClientCount())
}

// HandleAction relays a notification action to open pages, or persists it
// for replay when none are open
func (w *Worker) HandleAction(ctx context.Context, action domain.NotificationAction) error {
	if w.hub.ClientCount() > 0 {
		msg := domain.WorkerMessage{
			Kind:   domain.MessageNotificationAction,
			Action: &action,
		}
		payload, err := json.Marshal(msg)
		if err != nil {
			return errors.NewInternalError("failed to encode action", err)
		}
		w.hub.Broadcast(payload)
		return nil
	}

	if err := w.queue.Enqueue(ctx, action); err != nil {
		return err
	}
	metrics.PendingActionsQueued.Inc()
	w.log.Info("Queued notification action for replay",
		"task_id", action.TaskID, "action", action.Action)
	return nil
}

// DrainPending replays every queued action to the newly opened page contexts
func (w *Worker) DrainPending(ctx context.Context) error {
	actions, err := w.queue.Drain(ctx)
	if err != nil {
		return err
	}
	if len(actions) == 0 {
		return nil
	}

	msg := domain.WorkerMessage{
		Kind:    domain.MessageSyncPendingActions,
		Actions: actions,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return errors.NewInternalError("failed to encode pending actions", err)
	}
	w.hub.Broadcast(payload)
	metrics.PendingActionsReplayed.Add(float64(len(actions)))
	w.log.Info("Replayed pending notification actions", "count", len(actions))
	return nil
}

// HandleMessage processes a message received from a page context
func (w *Worker) HandleMessage(ctx context.Context, raw []byte) error {
	var msg domain.WorkerMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return errors.NewInternalError("malformed page message", err)
	}

	switch msg.Kind {
	case domain.MessageCheckNotifications:
		if w.waker != nil {
			w.waker.Wake("page_check")
		}
		return nil
	case domain.MessageNotificationAction:
		if msg.Action == nil {
			return errors.NewInternalError("action message without action", nil)
		}
		return w.HandleAction(ctx, *msg.Action)
	default:
		w.log.Warn("Unknown page message kind", "kind", msg.Kind)
		return nil
	}
}

// OnPageConnect runs when a page context attaches: replay queued actions and
// re-check for due notifications (visibility-regain semantics)
func (w *Worker) OnPageConnect(ctx context.Context) {
	if err := w.DrainPending(ctx); err != nil {
		w.log.Error("Failed to replay pending actions", "error", err)
	}
	if w.waker != nil {
		w.waker.Wake("page_open")
	}
}
