package domain

// MessageKind discriminates worker<->page messages
type MessageKind string

const (
	MessageNotificationAction MessageKind = "NOTIFICATION_ACTION"
	MessageCheckNotifications MessageKind = "CHECK_NOTIFICATIONS"
	MessageSyncPendingActions MessageKind = "SYNC_PENDING_ACTIONS"
	MessageShowNotification   MessageKind = "SHOW_NOTIFICATION"
)

// ActionKind is what the user tapped on a delivered notification
type ActionKind string

const (
	ActionComplete ActionKind = "complete"
	ActionSnooze   ActionKind = "snooze"
	ActionView     ActionKind = "view"
)

// NotificationAction carries a user action from the worker back to a page
type NotificationAction struct {
	TaskID  string     `json:"task_id"`
	Action  ActionKind `json:"action"`
	Minutes int        `json:"minutes,omitempty"`
}

// NotificationData is the structured payload attached to a displayed alert
type NotificationData struct {
	NotificationIDs []string `json:"notification_ids"`
	TaskIDs         []string `json:"task_ids"`
}

// DisplayNotification is a fully rendered alert ready for a page context.
// AutoCloseMillis of zero means the alert persists until user interaction.
type DisplayNotification struct {
	Title              string           `json:"title"`
	Body               string           `json:"body"`
	Vibration          []int            `json:"vibration"`
	Actions            []string         `json:"actions"`
	RequireInteraction bool             `json:"require_interaction"`
	AutoCloseMillis    int              `json:"auto_close_millis,omitempty"`
	Data               NotificationData `json:"data"`
}

// WorkerMessage is the closed-set envelope exchanged between the background
// worker and page contexts. Exactly one payload field is set per kind.
type WorkerMessage struct {
	Kind         MessageKind          `json:"kind"`
	Action       *NotificationAction  `json:"action,omitempty"`
	Actions      []NotificationAction `json:"actions,omitempty"`
	Notification *DisplayNotification `json:"notification,omitempty"`
}
