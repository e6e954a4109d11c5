package worker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LuckysHorizon/SmartReminder/internal/domain"
	"github.com/LuckysHorizon/SmartReminder/internal/shared/logger"
)

type fakeHub struct {
	mu       sync.Mutex
	messages [][]byte
	clients  int
}

func (h *fakeHub) Broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
}

func (h *fakeHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.clients
}

func (h *fakeHub) broadcasts() [][]byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([][]byte, len(h.messages))
	copy(out, h.messages)
	return out
}

type fakeQueue struct {
	mu      sync.Mutex
	actions []domain.NotificationAction
}

func (q *fakeQueue) Enqueue(_ context.Context, action domain.NotificationAction) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.actions = append(q.actions, action)
	return nil
}

func (q *fakeQueue) Drain(context.Context) ([]domain.NotificationAction, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.actions
	q.actions = nil
	return out, nil
}

type fakeWaker struct {
	mu      sync.Mutex
	reasons []string
}

func (w *fakeWaker) Wake(reason string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reasons = append(w.reasons, reason)
}

func (w *fakeWaker) woke() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.reasons))
	copy(out, w.reasons)
	return out
}

func TestWorker_ShowRequiresRegistration(t *testing.T) {
	w := NewWorker(&fakeHub{}, &fakeQueue{}, 4, logger.NewNop())

	err := w.Show(context.Background(), &domain.DisplayNotification{Title: "t"})
	require.Error(t, err)
	assert.False(t, w.Registered())
}

func TestWorker_ShowDeliversThroughHub(t *testing.T) {
	hub := &fakeHub{clients: 1}
	w := NewWorker(hub, &fakeQueue{}, 4, logger.NewNop())
	w.Start()
	defer w.Stop()

	require.True(t, w.Registered())
	require.NoError(t, w.Show(context.Background(), &domain.DisplayNotification{Title: "Water plants"}))

	assert.Eventually(t, func() bool {
		return len(hub.broadcasts()) == 1
	}, time.Second, 5*time.Millisecond)

	var msg domain.WorkerMessage
	require.NoError(t, json.Unmarshal(hub.broadcasts()[0], &msg))
	assert.Equal(t, domain.MessageShowNotification, msg.Kind)
	require.NotNil(t, msg.Notification)
	assert.Equal(t, "Water plants", msg.Notification.Title)
}

func TestWorker_HandleActionRelaysWhenPagesOpen(t *testing.T) {
	hub := &fakeHub{clients: 2}
	queue := &fakeQueue{}
	w := NewWorker(hub, queue, 4, logger.NewNop())

	action := domain.NotificationAction{TaskID: "task-1", Action: domain.ActionComplete}
	require.NoError(t, w.HandleAction(context.Background(), action))

	require.Len(t, hub.broadcasts(), 1)
	assert.Empty(t, queue.actions)

	var msg domain.WorkerMessage
	require.NoError(t, json.Unmarshal(hub.broadcasts()[0], &msg))
	assert.Equal(t, domain.MessageNotificationAction, msg.Kind)
	require.NotNil(t, msg.Action)
	assert.Equal(t, "task-1", msg.Action.TaskID)
}

func TestWorker_HandleActionQueuesWhenNoPages(t *testing.T) {
	hub := &fakeHub{clients: 0}
	queue := &fakeQueue{}
	w := NewWorker(hub, queue, 4, logger.NewNop())

	action := domain.NotificationAction{TaskID: "task-1", Action: domain.ActionSnooze, Minutes: 10}
	require.NoError(t, w.HandleAction(context.Background(), action))

	assert.Empty(t, hub.broadcasts())
	require.Len(t, queue.actions, 1)
	assert.Equal(t, "task-1", queue.actions[0].TaskID)
}

func TestWorker_DrainPendingReplaysQueuedActions(t *testing.T) {
	hub := &fakeHub{clients: 1}
	queue := &fakeQueue{actions: []domain.NotificationAction{
		{TaskID: "task-1", Action: domain.ActionComplete},
		{TaskID: "task-2", Action: domain.ActionSnooze, Minutes: 60},
	}}
	w := NewWorker(hub, queue, 4, logger.NewNop())

	require.NoError(t, w.DrainPending(context.Background()))

	require.Len(t, hub.broadcasts(), 1)
	var msg domain.WorkerMessage
	require.NoError(t, json.Unmarshal(hub.broadcasts()[0], &msg))
	assert.Equal(t, domain.MessageSyncPendingActions, msg.Kind)
	require.Len(t, msg.Actions, 2)
	assert.Equal(t, "task-1", msg.Actions[0].TaskID)
	assert.Equal(t, "task-2", msg.Actions[1].TaskID)

	// The queue is empty afterwards, so a second drain broadcasts nothing
	require.NoError(t, w.DrainPending(context.Background()))
	assert.Len(t, hub.broadcasts(), 1)
}

func TestWorker_HandleMessage(t *testing.T) {
	t.Run("check notifications wakes the scheduler", func(t *testing.T) {
		waker := &fakeWaker{}
		w := NewWorker(&fakeHub{}, &fakeQueue{}, 4, logger.NewNop())
		w.SetWaker(waker)

		raw, _ := json.Marshal(domain.WorkerMessage{Kind: domain.MessageCheckNotifications})
		require.NoError(t, w.HandleMessage(context.Background(), raw))
		assert.Equal(t, []string{"page_check"}, waker.woke())
	})

	t.Run("action message is relayed", func(t *testing.T) {
		hub := &fakeHub{clients: 1}
		w := NewWorker(hub, &fakeQueue{}, 4, logger.NewNop())

		raw, _ := json.Marshal(domain.WorkerMessage{
			Kind:   domain.MessageNotificationAction,
			Action: &domain.NotificationAction{TaskID: "task-1", Action: domain.ActionView},
		})
		require.NoError(t, w.HandleMessage(context.Background(), raw))
		assert.Len(t, hub.broadcasts(), 1)
	})

	t.Run("action message without action errors", func(t *testing.T) {
		w := NewWorker(&fakeHub{}, &fakeQueue{}, 4, logger.NewNop())
		raw, _ := json.Marshal(domain.WorkerMessage{Kind: domain.MessageNotificationAction})
		assert.Error(t, w.HandleMessage(context.Background(), raw))
	})

	t.Run("malformed payload errors", func(t *testing.T) {
		w := NewWorker(&fakeHub{}, &fakeQueue{}, 4, logger.NewNop())
		assert.Error(t, w.HandleMessage(context.Background(), []byte("{not json")))
	})

	t.Run("unknown kind is ignored", func(t *testing.T) {
		w := NewWorker(&fakeHub{}, &fakeQueue{}, 4, logger.NewNop())
		raw, _ := json.Marshal(domain.WorkerMessage{Kind: "SOMETHING_ELSE"})
		assert.NoError(t, w.HandleMessage(context.Background(), raw))
	})
}

func TestWorker_OnPageConnect(t *testing.T) {
	hub := &fakeHub{clients: 1}
	queue := &fakeQueue{actions: []domain.NotificationAction{
		{TaskID: "task-1", Action: domain.ActionComplete},
	}}
	waker := &fakeWaker{}
	w := NewWorker(hub, queue, 4, logger.NewNop())
	w.SetWaker(waker)

	w.OnPageConnect(context.Background())

	assert.Len(t, hub.broadcasts(), 1)
	assert.Equal(t, []string{"page_open"}, waker.woke())
}

func TestWorker_StartStopLifecycle(t *testing.T) {
	w := NewWorker(&fakeHub{}, &fakeQueue{}, 4, logger.NewNop())

	w.Start()
	assert.True(t, w.Registered())

	// A second start is a no-op
	w.Start()
	assert.True(t, w.Registered())

	w.Stop()
	assert.False(t, w.Registered())

	// Stopping twice does not panic
	w.Stop()
}
