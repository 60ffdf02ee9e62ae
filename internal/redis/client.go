package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mossy-p/room-relay/config"
	"github.com/mossy-p/room-relay/internal/signaling"
	"github.com/redis/go-redis/v9"
)

const (
	// ListedRoomsKey holds the advertised room list.
	ListedRoomsKey = "rooms:listed"

	keyTTL    = 24 * time.Hour
	queueSize = 256
	opTimeout = 2 * time.Second
)

var _ signaling.Presence = (*Presence)(nil)

// RoomPeersKey is the set of peers currently in room.
func RoomPeersKey(room signaling.RoomID) string {
	return "room:" + string(room) + ":peers"
}

type update struct {
	key     string
	members []string
}

// Presence mirrors room occupancy into Redis for external readers. The relay
// never reads it back; updates are queued and dropped when Redis falls behind.
type Presence struct {
	client  *redis.Client
	updates chan update
	logger  *slog.Logger
}

// Connect initializes the Redis client and verifies the connection.
func Connect(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (*Presence, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newPresence(client, logger), nil
}

func newPresence(client *redis.Client, logger *slog.Logger) *Presence {
	if logger == nil {
		logger = slog.Default()
	}
	return &Presence{
		client:  client,
		updates: make(chan update, queueSize),
		logger:  logger,
	}
}

// RoomChanged records the current members of room.
func (p *Presence) RoomChanged(room signaling.RoomID, members []signaling.PeerID) {
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = string(m)
	}
	p.enqueue(update{key: RoomPeersKey(room), members: ids})
}

// RoomsListed records the advertised room list.
func (p *Presence) RoomsListed(rooms []signaling.RoomID) {
	ids := make([]string, len(rooms))
	for i, r := range rooms {
		ids[i] = string(r)
	}
	p.enqueue(update{key: ListedRoomsKey, members: ids})
}

func (p *Presence) enqueue(u update) {
	select {
	case p.updates <- u:
	default:
		p.logger.Warn("presence queue full, dropping update", "key", u.key)
	}
}

// Run writes queued updates until ctx is cancelled.
func (p *Presence) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-p.updates:
			if err := p.apply(ctx, u); err != nil {
				p.logger.Warn("failed to mirror presence", "key", u.key, "err", err)
			}
		}
	}
}

// apply replaces the set at u.key. An empty set deletes the key so that
// empty rooms disappear from Redis as they do from the registry.
func (p *Presence) apply(ctx context.Context, u update) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, u.key)
		if len(u.members) > 0 {
			members := make([]interface{}, len(u.members))
			for i, m := range u.members {
				members[i] = m
			}
			pipe.SAdd(ctx, u.key, members...)
			pipe.Expire(ctx, u.key, keyTTL)
		}
		return nil
	})
	return err
}

// Close closes the Redis connection
func (p *Presence) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
