package presenter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/LuckysHorizon/SmartReminder/internal/domain"
	"github.com/LuckysHorizon/SmartReminder/internal/metrics"
	"github.com/LuckysHorizon/SmartReminder/internal/shared/logger"
)

// Auto-close delays for in-page alerts that do not require interaction
const (
	autoCloseNormal = 8 * time.Second
	autoCloseLow    = 5 * time.Second
)

// An alert offers at most this many action buttons
const maxActions = 4

// PermissionGate exposes the persisted notification permission and the
// per-notification delivery cooldown
type PermissionGate interface {
	Get(ctx context.Context) (domain.PermissionState, error)
	TryCooldown(ctx context.Context, id string, ttl time.Duration) (bool, error)
}

// WorkerChannel is the background delivery context. Alerts sent through it
// survive page closure and keep their action buttons.
type WorkerChannel interface {
	Registered() bool
	Show(ctx context.Context, n *domain.DisplayNotification) error
}

// PageSender broadcasts raw messages to every open page context
type PageSender interface {
	Broadcast(msg []byte)
}

// Presenter renders due notifications as visible alerts. It prefers the
// background worker channel when the worker is registered and falls back to
// an in-page alert otherwise.
type Presenter struct {
	gate        PermissionGate
	worker      WorkerChannel
	pages       PageSender
	cooldownTTL time.Duration
	log         *logger.Logger
	now         func() time.Time
}

// NewPresenter creates a new presenter
func NewPresenter(gate PermissionGate, worker WorkerChannel, pages PageSender, cooldownTTL time.Duration, log *logger.Logger) *Presenter {
	return &Presenter{
		gate:        gate,
		worker:      worker,
		pages:       pages,
		cooldownTTL: cooldownTTL,
		log:         log,
		now:         time.Now,
	}
}

// Present shows one alert for the request. Without granted permission it is
// a logged no-op, never a hard failure: the rest of the app keeps working
// with alerts off.
func (p *Presenter) Present(ctx context.Context, req domain.PresentRequest) error {
	state, err := p.gate.Get(ctx)
	if err != nil {
		return err
	}
	if state != domain.PermissionGranted {
		p.log.Warn("Notification permission not granted, skipping alert", "state", state)
		return nil
	}

	if len(req.NotificationIDs) == 1 {
		fresh, err := p.gate.TryCooldown(ctx, req.NotificationIDs[0], p.cooldownTTL)
		if err != nil {
			return err
		}
		if !fresh {
			p.log.Debug("Notification inside delivery cooldown, skipping", "id", req.NotificationIDs[0])
			return nil
		}
	}

	viaWorker := p.worker.Registered()
	display := BuildDisplay(req, p.now(), viaWorker)

	channel := "page"
	if viaWorker {
		channel = "worker"
		err = p.worker.Show(ctx, display)
	} else {
		err = p.showInPage(display)
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.NotificationsDelivered.WithLabelValues(channel, status).Inc()
	return err
}

func (p *Presenter) showInPage(display *domain.DisplayNotification) error {
	msg := domain.WorkerMessage{
		Kind:         domain.MessageShowNotification,
		Notification: display,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	p.pages.Broadcast(payload)
	return nil
}

// BuildDisplay renders a presentation request into a display notification:
// vibration pattern from the category/priority table, body enriched with due
// date and snooze context, action buttons, and close behavior.
func BuildDisplay(req domain.PresentRequest, now time.Time, viaWorker bool) *domain.DisplayNotification {
	requireInteraction := viaWorker ||
		req.Priority == domain.PriorityHigh ||
		req.Category == domain.CategoryOverdue

	autoClose := 0
	if !requireInteraction {
		switch req.Priority {
		case domain.PriorityLow:
			autoClose = int(autoCloseLow.Milliseconds())
		default:
			autoClose = int(autoCloseNormal.Milliseconds())
		}
	}

	return &domain.DisplayNotification{
		Title:              req.Title,
		Body:               EnrichBody(req, now),
		Vibration:          VibrationPattern(req.Category, req.Priority, req.IsGrouped),
		Actions:            actionButtons(),
		RequireInteraction: requireInteraction,
		AutoCloseMillis:    autoClose,
		Data: domain.NotificationData{
			NotificationIDs: req.NotificationIDs,
			TaskIDs:         req.TaskIDs,
		},
	}
}

// VibrationPattern maps category, priority and groupedness to a fixed
// pattern. Grouped alerts take precedence, then category, then priority.
func VibrationPattern(category domain.Category, priority domain.Priority, isGrouped bool) []int {
	if isGrouped {
		return []int{100, 50, 100, 50, 100, 50, 200}
	}
	switch category {
	case domain.CategoryOverdue:
		return []int{200, 100, 200, 100, 200}
	case domain.CategoryDeadline:
		return []int{300, 150, 300}
	}
	switch priority {
	case domain.PriorityHigh:
		return []int{200, 100, 200}
	case domain.PriorityLow:
		return []int{100}
	}
	return []int{150, 100, 150}
}

// EnrichBody appends due-date context and the snooze count to the body, and
// prefixes grouped alerts with the attention header
func EnrichBody(req domain.PresentRequest, now time.Time) string {
	body := req.Body

	if req.TaskDueDate != nil {
		body += " " + dueDateContext(*req.TaskDueDate, now)
	}
	if req.SnoozeCount > 0 {
		body += fmt.Sprintf(" (snoozed %dx)", req.SnoozeCount)
	}
	if req.IsGrouped {
		body = fmt.Sprintf("%d tasks need your attention: %s", req.GroupCount, body)
	}
	return body
}

func dueDateContext(due, now time.Time) string {
	if !due.After(now) {
		days := int(now.Sub(due).Hours() / 24)
		if days >= 1 {
			if days == 1 {
				return "(1 day overdue)"
			}
			return fmt.Sprintf("(%d days overdue)", days)
		}
		return fmt.Sprintf("(Overdue since %s)", due.Format("15:04"))
	}
	if sameDay(due, now) {
		return fmt.Sprintf("(Due at %s)", due.Format("15:04"))
	}
	return fmt.Sprintf("(Due %s at %s)", due.Format("Jan 2"), due.Format("15:04"))
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func actionButtons() []string {
	actions := []string{"complete", "snooze-10", "snooze-60", "view"}
	if len(actions) > maxActions {
		actions = actions[:maxActions]
	}
	return actions
}
