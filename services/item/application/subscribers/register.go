package subscribers

import (
	"context"
	"errors"
	"sort"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/ghuser/itemsapi/pkg/logger"
)

// ErrNoHandlers is returned by Register when there is nothing to subscribe.
var ErrNoHandlers = errors.New("subscribers: no handlers")

// Bus is the part of events.EventBus that Register needs.
type Bus interface {
	Subscribe(ctx context.Context, topic string, handler func(context.Context, *message.Message) error) (<-chan error, error)
}

// Register subscribes every handler on bus. Subscriber errors are drained
// into the log in the background so the channels never block.
func Register(ctx context.Context, bus Bus, handlers map[string]Handler, log logger.Logger) error {
	if len(handlers) == 0 {
		return ErrNoHandlers
	}

	topics := make([]string, 0, len(handlers))
	for topic := range handlers {
		topics = append(topics, topic)
	}
	sort.Strings(topics)

	for _, topic := range topics {
		errCh, err := bus.Subscribe(ctx, topic, handlers[topic])
		if err != nil {
			return err
		}
		go func() {
			for err := range errCh {
				log.ErrorContext(ctx, "subscriber error", "topic", topic, "error", err)
			}
		}()
	}

	log.Info("event subscribers registered", "topics", topics)
	return nil
}
