package models

// BroadcastRequest is an admin announcement sent to every user,
// optionally narrowed by role
type BroadcastRequest struct {
	Message      string `json:"message"`
	MessageHindi string `json:"message_hindi,omitempty"`
	TargetRole   string `json:"target_role,omitempty"`
}

// BroadcastStats reports the outcome of a broadcast or reminder run.
// Failed sends are counted, never retried within the same invocation.
type BroadcastStats struct {
	TotalUsers     int `json:"total_users"`
	MessagesSent   int `json:"messages_sent"`
	MessagesFailed int `json:"messages_failed"`
}

// BroadcastResponse wraps stats with a human message
type BroadcastResponse struct {
	Message string         `json:"message"`
	Stats   BroadcastStats `json:"stats"`
}
