package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/gamefriend-core/internal/core/domain"
	"github.com/custodia-labs/gamefriend-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.IndexInvalidator = (*Invalidator)(nil)

// DefaultChannel is the pub/sub channel invalidations travel on
const DefaultChannel = "gamefriend:index:invalidate"

type invalidation struct {
	Game   string `json:"game"`
	Origin string `json:"origin"`
}

// Invalidator fans index invalidations out over Redis pub/sub.
// Each instance tags its messages and ignores its own on receipt, since the
// publisher has already dropped its local cache.
type Invalidator struct {
	client     redis.UniversalClient
	channel    string
	instanceID string
	logger     *slog.Logger
}

// NewInvalidator creates an invalidator on channel (DefaultChannel when empty)
func NewInvalidator(client redis.UniversalClient, channel string, logger *slog.Logger) *Invalidator {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Invalidator{
		client:     client,
		channel:    channel,
		instanceID: uuid.NewString(),
		logger:     logger,
	}
}

// InstanceID identifies this process on the channel
func (i *Invalidator) InstanceID() string {
	return i.instanceID
}

// Publish announces that gameID's index is stale
func (i *Invalidator) Publish(ctx context.Context, gameID string) error {
	payload, err := json.Marshal(invalidation{Game: domain.NormalizeGameID(gameID), Origin: i.instanceID})
	if err != nil {
		return err
	}
	if err := i.client.Publish(ctx, i.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish invalidation for %s: %w", gameID, err)
	}
	return nil
}

// Subscribe delivers invalidations from other instances to fn until ctx is
// cancelled. The subscription is confirmed before Subscribe starts reading.
func (i *Invalidator) Subscribe(ctx context.Context, fn func(gameID string)) error {
	sub := i.client.Subscribe(ctx, i.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribe %s: %w", i.channel, err)
	}

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var inv invalidation
			if err := json.Unmarshal([]byte(msg.Payload), &inv); err != nil {
				i.logger.Warn("discarding malformed invalidation", "payload", msg.Payload, "error", err)
				continue
			}
			if inv.Origin == i.instanceID || inv.Game == "" {
				continue
			}
			fn(inv.Game)
		}
	}
}
