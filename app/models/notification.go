package models

import (
	"encoding/json"
	"errors"
	"time"
)

// Notification is one message sent by an admin, shared by all its recipients.
type Notification struct {
	ID       string    `json:"id"`
	AuthorID string    `json:"adminId"`
	Subject  string    `json:"subject"`
	Body     string    `json:"message"`
	SentAt   time.Time `json:"sentAt"`
}

// RecipientState is one guardian's view of a notification.
type RecipientState struct {
	NotificationID string     `json:"notificationId"`
	GuardianID     string     `json:"parentId"`
	IsRead         bool       `json:"isRead"`
	ReadAt         *time.Time `json:"readAt"`
}

// NotificationView joins a notification with one recipient's read state.
type NotificationView struct {
	Notification
	IsRead     bool       `json:"isRead"`
	ReadAt     *time.Time `json:"readAt"`
	AuthorName string     `json:"adminName,omitempty"`
}

// Recipients is either a broadcast to every guardian or an explicit list.
// On the wire it is the string "all" or an array of guardian ids.
type Recipients struct {
	Broadcast   bool
	GuardianIDs []string
}

var ErrInvalidRecipients = errors.New(`recipients must be "all" or an array of guardian ids`)

func BroadcastRecipients() Recipients {
	return Recipients{Broadcast: true}
}

func TargetedRecipients(ids ...string) Recipients {
	return Recipients{GuardianIDs: ids}
}

func (r *Recipients) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "all" {
			return ErrInvalidRecipients
		}
		*r = BroadcastRecipients()
		return nil
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return ErrInvalidRecipients
	}
	*r = TargetedRecipients(ids...)
	return nil
}

func (r Recipients) MarshalJSON() ([]byte, error) {
	if r.Broadcast {
		return json.Marshal("all")
	}
	return json.Marshal(r.GuardianIDs)
}
