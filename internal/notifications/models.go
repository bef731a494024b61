package notifications

import (
	"fmt"
	"time"

	"github.com/PatrickWalther/unfollow-watch-go/internal/models"
)

const (
	TitleUnfollower   = "Unfollower Detected!"
	TitleAutoUnfollow = "Automatic Unfollow"
	TitleTest         = "Test Notification"
)

const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

func UnfollowerNotification(f models.Follower) Notification {
	return Notification{
		Type:       NotificationTypeUnfollower,
		Title:      TitleUnfollower,
		Message:    fmt.Sprintf("%s has unfollowed you.", f.Login),
		Login:      f.Login,
		AvatarURL:  f.AvatarURL,
		ProfileURL: f.ProfileURL,
	}
}

func AutoUnfollowNotification(f models.Follower) Notification {
	return Notification{
		Type:       NotificationTypeAutoUnfollow,
		Title:      TitleAutoUnfollow,
		Message:    fmt.Sprintf("You have automatically unfollowed %s.", f.Login),
		Login:      f.Login,
		AvatarURL:  f.AvatarURL,
		ProfileURL: f.ProfileURL,
	}
}

func TestNotification() Notification {
	return Notification{
		Type:    NotificationTypeTest,
		Title:   TitleTest,
		Message: "Notifications are working.",
	}
}

// LogEntry is one delivery attempt as stored in the notification log.
type LogEntry struct {
	ID        int64            `json:"id"`
	Type      NotificationType `json:"type"`
	Provider  string           `json:"provider"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Login     string           `json:"login,omitempty"`
	Status    string           `json:"status"`
	Error     string           `json:"error,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}
