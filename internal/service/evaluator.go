package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/LuckysHorizon/SmartReminder/internal/domain"
	"github.com/LuckysHorizon/SmartReminder/internal/metrics"
	"github.com/LuckysHorizon/SmartReminder/internal/shared/errors"
	"github.com/LuckysHorizon/SmartReminder/internal/shared/logger"
)

// At most this many member bodies appear in a batch body before truncation
const batchBodyLimit = 3

// Presenter renders a due notification or batch as a visible alert
type Presenter interface {
	Present(ctx context.Context, req domain.PresentRequest) error
}

// TriggerEvaluator finds due undelivered notifications and decides how to
// present them. A mutex serializes passes within the process; across
// contexts the store's conditional mark-triggered is the serialization point,
// so a pass that loses the transition never presents or reschedules twice.
type TriggerEvaluator struct {
	store      NotificationStore
	presenter  Presenter
	recurrence *RecurrenceEngine
	window     time.Duration
	log        *logger.Logger
	now        func() time.Time
	mu         sync.Mutex
}

// NewTriggerEvaluator creates a new trigger evaluator. The window bounds how
// far a group may stretch past its anchor's scheduled time.
func NewTriggerEvaluator(store NotificationStore, presenter Presenter, recurrence *RecurrenceEngine, window time.Duration, log *logger.Logger) *TriggerEvaluator {
	return &TriggerEvaluator{
		store:      store,
		presenter:  presenter,
		recurrence: recurrence,
		window:     window,
		log:        log,
		now:        time.Now,
	}
}

// Evaluate runs one pass: fetch due untriggered records, group them, present
// each group, then mark members triggered. Marking happens regardless of
// presentation outcome so every record gets at most one delivery attempt.
func (e *TriggerEvaluator) Evaluate(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	timer := time.Now()
	defer func() {
		metrics.EvaluatorPassDuration.Observe(time.Since(timer).Seconds())
	}()

	due, err := e.store.FindDueUntriggered(ctx, e.now())
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	sortDue(due)
	groups := groupByWindow(due, e.window)
	e.log.Info("Evaluating due notifications", "due", len(due), "groups", len(groups))

	for _, group := range groups {
		req := e.buildRequest(group)
		if err := e.presenter.Present(ctx, req); err != nil {
			// Logged, not retried: the group still gets marked below
			e.log.Warn("Presentation attempt failed", "error", err, "size", len(group))
		}

		for _, n := range group {
			won, err := e.store.MarkTriggered(ctx, n.ID)
			if err != nil {
				if errors.IsNotFound(err) {
					// Deleted out from under us between fetch and mark
					continue
				}
				e.log.Error("Failed to mark notification triggered", "error", err, "id", n.ID)
				continue
			}
			if !won {
				// A concurrent pass already delivered this record
				continue
			}
			if n.IsRecurring {
				if _, err := e.recurrence.ScheduleNext(ctx, n); err != nil {
					e.log.Error("Failed to schedule recurrence follow-up", "error", err, "id", n.ID)
				}
			}
		}
	}

	return nil
}

// buildRequest turns a group into a presentation request, synthesizing a
// batch title and truncated body for groups larger than one
func (e *TriggerEvaluator) buildRequest(group []*domain.ScheduledNotification) domain.PresentRequest {
	ids := make([]string, len(group))
	taskIDs := make([]string, len(group))
	for i, n := range group {
		ids[i] = n.ID
		taskIDs[i] = n.TaskID
	}

	if len(group) == 1 {
		n := group[0]
		return domain.PresentRequest{
			Title:           n.Title,
			Body:            n.Body,
			NotificationIDs: ids,
			TaskIDs:         taskIDs,
			Priority:        n.Priority,
			Category:        n.Category,
			TaskDueDate:     n.TaskDueDate,
			SnoozeCount:     n.SnoozeCount,
		}
	}

	metrics.GroupedBatches.Inc()
	return domain.PresentRequest{
		Title:           batchTitle(group),
		Body:            batchBody(group),
		NotificationIDs: ids,
		TaskIDs:         taskIDs,
		Priority:        group[0].Priority,
		Category:        batchCategory(group),
		IsGrouped:       true,
		GroupCount:      len(group),
	}
}

// sortDue orders candidates by priority descending, tie-broken by ascending
// scheduled time. Grouping walks this order, so batches lean
// priority-homogeneous rather than purely chronological.
func sortDue(due []*domain.ScheduledNotification) {
	sort.SliceStable(due, func(i, j int) bool {
		ri, rj := due[i].Priority.Rank(), due[j].Priority.Rank()
		if ri != rj {
			return ri > rj
		}
		return due[i].ScheduledTime.Before(due[j].ScheduledTime)
	})
}

// groupByWindow walks the sorted list and starts a new group whenever an
// item's scheduled time exceeds the current group anchor (its first item's
// scheduled time) by more than the window
func groupByWindow(sorted []*domain.ScheduledNotification, window time.Duration) [][]*domain.ScheduledNotification {
	var groups [][]*domain.ScheduledNotification
	var current []*domain.ScheduledNotification
	var anchor time.Time

	for _, n := range sorted {
		if current == nil || n.ScheduledTime.Sub(anchor) > window {
			if current != nil {
				groups = append(groups, current)
			}
			current = []*domain.ScheduledNotification{n}
			anchor = n.ScheduledTime
			continue
		}
		current = append(current, n)
	}
	if current != nil {
		groups = append(groups, current)
	}
	return groups
}

func batchTitle(group []*domain.ScheduledNotification) string {
	overdue := 0
	high := 0
	for _, n := range group {
		if n.Category == domain.CategoryOverdue {
			overdue++
		}
		if n.Priority == domain.PriorityHigh {
			high++
		}
	}
	if overdue > 0 {
		return fmt.Sprintf("%d %s overdue!", overdue, pluralTask(overdue))
	}
	if high > 0 {
		return fmt.Sprintf("%d high priority %s", high, pluralTask(high))
	}
	return fmt.Sprintf("%d tasks need attention", len(group))
}

func batchBody(group []*domain.ScheduledNotification) string {
	limit := len(group)
	if limit > batchBodyLimit {
		limit = batchBodyLimit
	}
	bodies := make([]string, limit)
	for i := 0; i < limit; i++ {
		bodies[i] = group[i].Body
	}
	body := strings.Join(bodies, "; ")
	if rest := len(group) - limit; rest > 0 {
		body += fmt.Sprintf(" and %d more", rest)
	}
	return body
}

func batchCategory(group []*domain.ScheduledNotification) domain.Category {
	for _, n := range group {
		if n.Category == domain.CategoryOverdue {
			return domain.CategoryOverdue
		}
	}
	return group[0].Category
}

func pluralTask(n int) string {
	if n == 1 {
		return "task"
	}
	return "tasks"
}
