package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/adspotmarket/adspot-backend/pkg/db/models"
	"github.com/adspotmarket/adspot-backend/pkg/enums"
	"github.com/adspotmarket/adspot-backend/pkg/logger"
	"github.com/adspotmarket/adspot-backend/pkg/metrics"
	"github.com/adspotmarket/adspot-backend/pkg/outbox"
	"github.com/adspotmarket/adspot-backend/pkg/outbox/idempotency"
	"github.com/adspotmarket/adspot-backend/pkg/outbox/payloads"
)

const (
	adminNotificationConsumer = "admin-notifications"
	consumerJobName           = "admin_notification_consume"
)

type consumerRepository interface {
	Create(ctx context.Context, notification *models.AdminNotification) error
}

// Consumer watches the notification topic and materializes admin
// notifications. Delivery is at least once; the idempotency manager keeps
// redelivered events from producing duplicate rows.
type Consumer struct {
	repo         consumerRepository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	hub          *Hub
	logg         *logger.Logger
	metrics      *metrics.JobMetrics
}

// NewConsumer builds an admin notification consumer. The hub is optional;
// without it, notifications are only persisted.
func NewConsumer(repo consumerRepository, subscription *pubsub.Subscriber, manager *idempotency.Manager, hub *Hub, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("notification subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		hub:          hub,
		logg:         logg,
	}, nil
}

// WithMetrics attaches job metrics to the consumer. Optional; without it
// processing is not measured.
func (c *Consumer) WithMetrics(m *metrics.JobMetrics) *Consumer {
	c.metrics = m
	return c
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		start := time.Now()
		result := c.process(ctx, msg)
		c.metrics.ObserveDuration(consumerJobName, time.Since(start))
		if result.nack {
			c.metrics.IncFailure(consumerJobName)
			msg.Nack()
			return
		}
		c.metrics.IncSuccess(consumerJobName)
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	parsedType, err := enums.ParseOutboxEventType(eventType)
	if err != nil {
		c.logg.Info(logCtx, "skipping unknown event type")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, adminNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	notification, err := c.buildNotification(parsedType, envelope)
	if err != nil {
		c.logg.Error(logCtx, "failed to build notification", err)
		_ = c.idempotency.Delete(ctx, adminNotificationConsumer, eventID)
		return processResult{nack: true}
	}
	if notification == nil {
		c.logg.Info(logCtx, "event type not materialized")
		return processResult{ack: true}
	}

	if err := c.repo.Create(ctx, notification); err != nil {
		c.logg.Error(logCtx, "failed to store notification", err)
		_ = c.idempotency.Delete(ctx, adminNotificationConsumer, eventID)
		return processResult{nack: true}
	}

	if c.hub != nil {
		delivered := c.hub.Publish(*notification)
		logCtx = c.logg.WithFields(logCtx, map[string]any{"delivered": delivered})
	}
	c.logg.Info(logCtx, "admin notification materialized")
	return processResult{ack: true}
}

func (c *Consumer) buildNotification(eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) (*models.AdminNotification, error) {
	source := "system"
	if envelope.Actor != nil && envelope.Actor.Name != "" {
		source = envelope.Actor.Name
	}

	switch eventType {
	case enums.EventBillboardStatusChanged:
		var payload payloads.BillboardStatusChangedEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return nil, err
		}
		// Only the review queue is broadcast; other transitions already reach
		// the relevant admin through assignment or verification events.
		if payload.NewStatus != enums.BillboardStatusPending {
			return nil, nil
		}
		return &models.AdminNotification{
			Type:            enums.NotificationTypeDashboardUpdate,
			SourceAdminName: source,
			Title:           "Billboard awaiting review",
			Message:         fmt.Sprintf("Billboard %q was submitted for review.", payload.BillboardTitle),
			Payload:         envelope.Data,
		}, nil

	case enums.EventBillboardVerified:
		var payload payloads.BillboardVerifiedEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return nil, err
		}
		outcome := "rejected it"
		if payload.Verified {
			outcome = "activated it"
		}
		return &models.AdminNotification{
			Type:            enums.NotificationTypeDashboardUpdate,
			SourceAdminName: source,
			Title:           "Site visit completed",
			Message: fmt.Sprintf("%s verified billboard %q and %s.",
				payload.SubAdminName, payload.BillboardTitle, outcome),
			Payload: envelope.Data,
		}, nil

	case enums.EventAssignmentChanged:
		var payload payloads.AssignmentChangedEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return nil, err
		}
		target := payload.SubAdminID
		message := fmt.Sprintf("%s assigned you billboard %q for verification (%s priority).",
			payload.AssignedByName, payload.BillboardTitle, payload.Priority)
		if payload.Superseded != nil {
			message += " This replaces a previous assignment."
		}
		return &models.AdminNotification{
			Type:            enums.NotificationTypeDashboardUpdate,
			TargetAdminID:   &target,
			SourceAdminName: source,
			Title:           "New verification assignment",
			Message:         message,
			Payload:         envelope.Data,
		}, nil

	case enums.EventUserDeleted:
		var payload payloads.UserDeletedEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return nil, err
		}
		return &models.AdminNotification{
			Type:            enums.NotificationTypeUserDeleted,
			SourceAdminName: source,
			Title:           "Account deleted",
			Message:         fmt.Sprintf("%s deleted account %s (%s).", payload.DeletedByName, payload.Email, payload.Role),
			Payload:         envelope.Data,
		}, nil

	case enums.EventUserUpdated:
		var payload payloads.UserUpdatedEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return nil, err
		}
		return &models.AdminNotification{
			Type:            enums.NotificationTypeUserUpdated,
			SourceAdminName: source,
			Title:           "Account updated",
			Message:         fmt.Sprintf("Profile of %s changed.", payload.FullName),
			Payload:         envelope.Data,
		}, nil

	case enums.EventSecurityAlert:
		var payload payloads.SecurityAlertEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return nil, err
		}
		return &models.AdminNotification{
			Type:            enums.NotificationTypeSecurityAlert,
			SourceAdminName: source,
			Title:           "Security alert",
			Message:         fmt.Sprintf("%s: repeated login failures for %s from %s.", payload.Kind, payload.Email, payload.IPAddress),
			Payload:         envelope.Data,
		}, nil

	default:
		return nil, nil
	}
}
