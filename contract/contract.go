//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"

	"roomchat/domain/event"
)

// EventSink receives live events for one connected session. Implementations
// must not block: a slow consumer reports a delivery error instead of
// stalling the fan-out to other recipients.
type EventSink interface {
	Consume(ctx context.Context, e event.Event) error
}
