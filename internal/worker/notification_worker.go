package worker

import (
	"github.com/spec-kit/case-service/internal/events"
	"github.com/spec-kit/case-service/internal/service"
)

// StartNotificationWorker subscribes the notification dispatcher to the
// lifecycle events it reacts to.
func StartNotificationWorker(dispatcher events.Dispatcher, notifications *service.NotificationDispatcher) {
	if dispatcher == nil || notifications == nil {
		return
	}
	notifications.RegisterHandlers(dispatcher)
}
