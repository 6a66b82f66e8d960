package service

import (
	"context"
	"strconv"

	"github.com/Skotchmaster/agency_site/internal/logging"
	"github.com/Skotchmaster/agency_site/internal/models"
	"github.com/Skotchmaster/agency_site/internal/mykafka"
)

type Auditor interface {
	Record(entry models.AuditLog)
}

// publish never fails the caller; a lost event is only logged.
func publish(ctx context.Context, pub mykafka.Publisher, topic string, ev mykafka.Event) {
	if pub == nil {
		return
	}
	key := strconv.FormatUint(uint64(ev.ID), 10)
	if err := pub.PublishEvent(ctx, topic, key, ev); err != nil {
		logging.FromContext(ctx).Warn("publish_event_failed", "topic", topic, "type", ev.Type, "error", err)
	}
}

func record(a Auditor, userID uint, action string, details map[string]any) {
	if a == nil {
		return
	}
	a.Record(models.AuditLog{UserID: userID, Action: action, Details: details})
}
