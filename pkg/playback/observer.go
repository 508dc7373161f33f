package playback

// NotificationType identifies a playback lifecycle notification.
type NotificationType string

const (
	NotifyConversationStarted NotificationType = "conversation.started"
	NotifyFrameEntered        NotificationType = "frame.entered"
	NotifyChoiceTaken         NotificationType = "choice.taken"
	NotifyConversationEnded   NotificationType = "conversation.ended"
	NotifyPlaybackFailed      NotificationType = "playback.failed"
)

// Notification describes one lifecycle step of playback.
type Notification struct {
	Type         NotificationType `json:"type"`
	Conversation string           `json:"conversation,omitempty"`
	Frame        string           `json:"frame,omitempty"`
	LinkIndex    int              `json:"link_index"`          // Only meaningful for choice.taken
	ChoiceID     string           `json:"choice_id,omitempty"` // Only set for choice.taken
	Error        string           `json:"error,omitempty"`
}

// Observer receives playback notifications. Observe is called synchronously
// from the runtime and must not call back into it.
type Observer interface {
	Observe(n Notification)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(n Notification)

func (f ObserverFunc) Observe(n Notification) {
	f(n)
}
