package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
)

// Channel is one live delivery endpoint.
type Channel interface {
	Send(ctx context.Context, msg []byte) error
	Close() error
}

type SubscriptionID = uuid.UUID

type Broadcaster interface {
	Subscribe(ch Channel) SubscriptionID
	Unsubscribe(id SubscriptionID)
	// Broadcast delivers the events, in order, to every current subscriber.
	// Delivery failures unsubscribe the failing channel and are not returned.
	Broadcast(ctx context.Context, events ...domain.Event)
	Len() int
}
