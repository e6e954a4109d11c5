package presenter

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LuckysHorizon/SmartReminder/internal/domain"
	"github.com/LuckysHorizon/SmartReminder/internal/shared/logger"
)

type fakeGate struct {
	state    domain.PermissionState
	cooldown map[string]bool
}

func (g *fakeGate) Get(context.Context) (domain.PermissionState, error) {
	return g.state, nil
}

func (g *fakeGate) TryCooldown(_ context.Context, id string, _ time.Duration) (bool, error) {
	if g.cooldown == nil {
		g.cooldown = make(map[string]bool)
	}
	if g.cooldown[id] {
		return false, nil
	}
	g.cooldown[id] = true
	return true, nil
}

type fakeWorker struct {
	registered bool
	shown      []*domain.DisplayNotification
}

func (w *fakeWorker) Registered() bool { return w.registered }

func (w *fakeWorker) Show(_ context.Context, n *domain.DisplayNotification) error {
	w.shown = append(w.shown, n)
	return nil
}

type fakePages struct {
	messages [][]byte
}

func (p *fakePages) Broadcast(msg []byte) {
	p.messages = append(p.messages, msg)
}

func TestVibrationPattern(t *testing.T) {
	tests := []struct {
		name      string
		category  domain.Category
		priority  domain.Priority
		isGrouped bool
		expected  []int
	}{
		{
			name:      "grouped wins over everything",
			category:  domain.CategoryOverdue,
			priority:  domain.PriorityHigh,
			isGrouped: true,
			expected:  []int{100, 50, 100, 50, 100, 50, 200},
		},
		{
			name:     "overdue category",
			category: domain.CategoryOverdue,
			priority: domain.PriorityLow,
			expected: []int{200, 100, 200, 100, 200},
		},
		{
			name:     "deadline category",
			category: domain.CategoryDeadline,
			priority: domain.PriorityHigh,
			expected: []int{300, 150, 300},
		},
		{
			name:     "high priority reminder",
			category: domain.CategoryReminder,
			priority: domain.PriorityHigh,
			expected: []int{200, 100, 200},
		},
		{
			name:     "low priority reminder",
			category: domain.CategoryReminder,
			priority: domain.PriorityLow,
			expected: []int{100},
		},
		{
			name:     "normal reminder",
			category: domain.CategoryReminder,
			priority: domain.PriorityNormal,
			expected: []int{150, 100, 150},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VibrationPattern(tt.category, tt.priority, tt.isGrouped)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestEnrichBody(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	ptr := func(t time.Time) *time.Time { return &t }

	tests := []struct {
		name     string
		req      domain.PresentRequest
		expected string
	}{
		{
			name:     "plain body untouched",
			req:      domain.PresentRequest{Body: "Don't forget: Water plants"},
			expected: "Don't forget: Water plants",
		},
		{
			name: "due later today",
			req: domain.PresentRequest{
				Body:        "Don't forget: Water plants",
				TaskDueDate: ptr(time.Date(2026, 3, 10, 16, 30, 0, 0, time.UTC)),
			},
			expected: "Don't forget: Water plants (Due at 16:30)",
		},
		{
			name: "due another day",
			req: domain.PresentRequest{
				Body:        "Don't forget: Water plants",
				TaskDueDate: ptr(time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)),
			},
			expected: "Don't forget: Water plants (Due Mar 12 at 09:00)",
		},
		{
			name: "overdue earlier today",
			req: domain.PresentRequest{
				Body:        "Don't forget: Water plants",
				TaskDueDate: ptr(time.Date(2026, 3, 10, 9, 15, 0, 0, time.UTC)),
			},
			expected: "Don't forget: Water plants (Overdue since 09:15)",
		},
		{
			name: "one day overdue",
			req: domain.PresentRequest{
				Body:        "Don't forget: Water plants",
				TaskDueDate: ptr(now.AddDate(0, 0, -1)),
			},
			expected: "Don't forget: Water plants (1 day overdue)",
		},
		{
			name: "several days overdue",
			req: domain.PresentRequest{
				Body:        "Don't forget: Water plants",
				TaskDueDate: ptr(now.AddDate(0, 0, -3)),
			},
			expected: "Don't forget: Water plants (3 days overdue)",
		},
		{
			name: "snooze count appended",
			req: domain.PresentRequest{
				Body:        "Don't forget: Water plants",
				SnoozeCount: 2,
			},
			expected: "Don't forget: Water plants (snoozed 2x)",
		},
		{
			name: "grouped prefix wraps the rest",
			req: domain.PresentRequest{
				Body:       "Body a; Body b",
				IsGrouped:  true,
				GroupCount: 2,
			},
			expected: "2 tasks need your attention: Body a; Body b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EnrichBody(tt.req, now)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestBuildDisplay(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	t.Run("worker delivery requires interaction", func(t *testing.T) {
		d := BuildDisplay(domain.PresentRequest{
			Title:    "Water plants",
			Body:     "b",
			Priority: domain.PriorityNormal,
			Category: domain.CategoryReminder,
		}, now, true)
		assert.True(t, d.RequireInteraction)
		assert.Equal(t, 0, d.AutoCloseMillis)
	})

	t.Run("high priority requires interaction in page too", func(t *testing.T) {
		d := BuildDisplay(domain.PresentRequest{
			Priority: domain.PriorityHigh,
			Category: domain.CategoryReminder,
		}, now, false)
		assert.True(t, d.RequireInteraction)
	})

	t.Run("normal in-page alert auto-closes after 8s", func(t *testing.T) {
		d := BuildDisplay(domain.PresentRequest{
			Priority: domain.PriorityNormal,
			Category: domain.CategoryReminder,
		}, now, false)
		assert.False(t, d.RequireInteraction)
		assert.Equal(t, 8000, d.AutoCloseMillis)
	})

	t.Run("low priority auto-closes after 5s", func(t *testing.T) {
		d := BuildDisplay(domain.PresentRequest{
			Priority: domain.PriorityLow,
			Category: domain.CategoryReminder,
		}, now, false)
		assert.Equal(t, 5000, d.AutoCloseMillis)
	})

	t.Run("action buttons are capped", func(t *testing.T) {
		d := BuildDisplay(domain.PresentRequest{}, now, false)
		assert.Equal(t, []string{"complete", "snooze-10", "snooze-60", "view"}, d.Actions)
		assert.LessOrEqual(t, len(d.Actions), maxActions)
	})

	t.Run("data carries ids for action handling", func(t *testing.T) {
		d := BuildDisplay(domain.PresentRequest{
			NotificationIDs: []string{"n-1"},
			TaskIDs:         []string{"task-1"},
		}, now, false)
		assert.Equal(t, []string{"n-1"}, d.Data.NotificationIDs)
		assert.Equal(t, []string{"task-1"}, d.Data.TaskIDs)
	})
}

func TestPresent_PermissionGate(t *testing.T) {
	for _, state := range []domain.PermissionState{domain.PermissionDefault, domain.PermissionDenied} {
		gate := &fakeGate{state: state}
		worker := &fakeWorker{registered: true}
		pages := &fakePages{}
		p := NewPresenter(gate, worker, pages, time.Minute, logger.NewNop())

		err := p.Present(context.Background(), domain.PresentRequest{
			Title:           "Water plants",
			NotificationIDs: []string{"n-1"},
		})
		require.NoError(t, err)
		assert.Empty(t, worker.shown)
		assert.Empty(t, pages.messages)
	}
}

func TestPresent_PrefersWorkerChannel(t *testing.T) {
	gate := &fakeGate{state: domain.PermissionGranted}
	worker := &fakeWorker{registered: true}
	pages := &fakePages{}
	p := NewPresenter(gate, worker, pages, time.Minute, logger.NewNop())

	err := p.Present(context.Background(), domain.PresentRequest{
		Title:           "Water plants",
		Body:            "b",
		NotificationIDs: []string{"n-1"},
		TaskIDs:         []string{"task-1"},
	})
	require.NoError(t, err)

	require.Len(t, worker.shown, 1)
	assert.Empty(t, pages.messages)
	assert.Equal(t, "Water plants", worker.shown[0].Title)
}

func TestPresent_FallsBackToPage(t *testing.T) {
	gate := &fakeGate{state: domain.PermissionGranted}
	worker := &fakeWorker{registered: false}
	pages := &fakePages{}
	p := NewPresenter(gate, worker, pages, time.Minute, logger.NewNop())

	err := p.Present(context.Background(), domain.PresentRequest{
		Title:           "Water plants",
		NotificationIDs: []string{"n-1"},
	})
	require.NoError(t, err)

	assert.Empty(t, worker.shown)
	require.Len(t, pages.messages, 1)

	var msg domain.WorkerMessage
	require.NoError(t, json.Unmarshal(pages.messages[0], &msg))
	assert.Equal(t, domain.MessageShowNotification, msg.Kind)
	require.NotNil(t, msg.Notification)
	assert.Equal(t, "Water plants", msg.Notification.Title)
}

func TestPresent_CooldownSuppressesRepeat(t *testing.T) {
	gate := &fakeGate{state: domain.PermissionGranted}
	worker := &fakeWorker{registered: true}
	p := NewPresenter(gate, worker, &fakePages{}, time.Minute, logger.NewNop())

	req := domain.PresentRequest{Title: "Water plants", NotificationIDs: []string{"n-1"}}
	require.NoError(t, p.Present(context.Background(), req))
	require.NoError(t, p.Present(context.Background(), req))

	assert.Len(t, worker.shown, 1)
}

func TestPresent_GroupsSkipCooldown(t *testing.T) {
	gate := &fakeGate{state: domain.PermissionGranted}
	worker := &fakeWorker{registered: true}
	p := NewPresenter(gate, worker, &fakePages{}, time.Minute, logger.NewNop())

	req := domain.PresentRequest{
		Title:           "2 tasks need attention",
		NotificationIDs: []string{"n-1", "n-2"},
		IsGrouped:       true,
		GroupCount:      2,
	}
	require.NoError(t, p.Present(context.Background(), req))
	require.NoError(t, p.Present(context.Background(), req))

	assert.Len(t, worker.shown, 2)
}
