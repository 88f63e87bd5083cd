package worker

import (
	"go.uber.org/zap"

	"github.com/chemdisk/members/internal/service"
)

// StartNotificationWorker subscribes the notification service to membership
// events. Events are delivered synchronously by the in-memory dispatcher, so
// there is no goroutine to stop.
func StartNotificationWorker(notificationService *service.NotificationService, logger *zap.Logger) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
	if logger != nil {
		logger.Info("notification worker started")
	}
}
