package push

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"arriendo-cajas-backend/internal/config"
	"arriendo-cajas-backend/internal/domain"
	"arriendo-cajas-backend/internal/logger"
	"arriendo-cajas-backend/internal/utils"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

var ErrNoPushToken = errors.New("driver has no push token")

// Notifier tells drivers about new assignments
type Notifier interface {
	NotifyAssignment(ctx context.Context, driver *domain.Driver, rental *domain.Rental) error
}

// messageSender is the subset of *messaging.Client used here
type messageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

type fcmNotifier struct {
	client messageSender
}

// New returns an FCM notifier when a credentials file is configured, otherwise a no-op notifier
func New(ctx context.Context, cfg *config.Config) (Notifier, error) {
	if cfg.Firebase.CredentialsFile == "" {
		logger.Warn("Firebase credentials not configured, driver push notifications disabled")
		return NoopNotifier{}, nil
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(cfg.Firebase.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase messaging: %w", err)
	}
	return &fcmNotifier{client: client}, nil
}

func newFCMNotifier(client messageSender) Notifier {
	return &fcmNotifier{client: client}
}

// assignmentMessage builds the push payload for a newly assigned rental
func assignmentMessage(token string, r *domain.Rental) *messaging.Message {
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: "Nueva asignación " + r.TrackingCode,
			Body:  fmt.Sprintf("%d cajas, entrega %s en %s", r.BoxQuantity, utils.FormatDate(r.DeliveryDate), r.DeliveryAddress),
		},
		Data: map[string]string{
			"rental_id":     strconv.FormatInt(r.ID, 10),
			"tracking_code": r.TrackingCode,
			"status":        string(r.Status),
		},
	}
}

func (n *fcmNotifier) NotifyAssignment(ctx context.Context, driver *domain.Driver, rental *domain.Rental) error {
	if driver.PushToken == "" {
		return ErrNoPushToken
	}

	logger.ExternalServiceCall("FCM", "Send", "driverID", driver.ID, "rentalID", rental.ID)
	id, err := n.client.Send(ctx, assignmentMessage(driver.PushToken, rental))
	logger.ExternalServiceResult("FCM", "Send", err, "messageID", id)
	if err != nil {
		return fmt.Errorf("failed to send push to driver %d: %w", driver.ID, err)
	}
	return nil
}

// NoopNotifier drops every notification
type NoopNotifier struct{}

func (NoopNotifier) NotifyAssignment(ctx context.Context, driver *domain.Driver, rental *domain.Rental) error {
	logger.Debug("Push disabled, skipping assignment notification", "driverID", driver.ID, "rentalID", rental.ID)
	return nil
}
