// Package usersink forwards bus events to a go-users ActivitySink so
// configuration lifecycle activity shows up alongside user activity.
package usersink

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-project/pkg/bus"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook adapts bus events to a go-users ActivitySink. Actor, user, and tenant
// identifiers are read from the event metadata keys "actor_id", "user_id",
// and "tenant_id" when present.
type Hook struct {
	Sink usertypes.ActivitySink
}

// Handle maps the event into an ActivityRecord and forwards it to the sink.
func (h Hook) Handle(ctx context.Context, event bus.Event) error {
	if h.Sink == nil {
		return nil
	}

	normalized := bus.NormalizeEvent(event)
	if normalized.Name == "" {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	objectID := normalized.Scope
	if objectID == "" {
		objectID = normalized.Path
	}
	if objectID == "" {
		objectID = "config"
	}

	record := usertypes.ActivityRecord{
		ActorID:    metadataUUID(normalized.Metadata, "actor_id"),
		UserID:     metadataUUID(normalized.Metadata, "user_id"),
		TenantID:   metadataUUID(normalized.Metadata, "tenant_id"),
		Verb:       normalized.Name,
		ObjectType: "config",
		ObjectID:   objectID,
		Channel:    normalized.Channel,
		Data:       cloneMap(normalized.Metadata),
		OccurredAt: normalized.OccurredAt,
	}
	if record.OccurredAt.IsZero() {
		record.OccurredAt = time.Now()
	}
	if normalized.Path != "" {
		if record.Data == nil {
			record.Data = map[string]any{}
		}
		record.Data["path"] = normalized.Path
	}

	return h.Sink.Log(ctx, record)
}

func metadataUUID(metadata map[string]any, key string) uuid.UUID {
	raw, ok := metadata[key]
	if !ok {
		return uuid.Nil
	}
	value, ok := raw.(string)
	if !ok {
		return uuid.Nil
	}
	id, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
