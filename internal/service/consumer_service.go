package service

import (
	"context"
	"encoding/json"
	"time"

	"course-notes-admin/internal/dto"
	"course-notes-admin/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/patrickmn/go-cache"
)

// ProgressDelivery pushes a serialized progress message to everyone watching a draft.
type ProgressDelivery interface {
	Send(draftId string, data []byte)
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	delivery   ProgressDelivery
	logger     logger.ILogger
	// last delivered draftVersion, keyed by draft id
	delivered *cache.Cache
}

type draftVersion struct {
	generation string
	version    int64
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	delivery ProgressDelivery,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		delivery:   delivery,
		logger:     log,
		delivered:  cache.New(time.Hour, 10*time.Minute),
	}
}

// Consume relays progress messages until ctx is cancelled.
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	// Always ack: a dropped progress frame is superseded by the next one.
	defer msg.Ack()

	var payload dto.UploadProgressMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Warn("PROGRESS", "Dropping malformed progress message", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	// The bus does not guarantee order between publishes. Versions only
	// compare within one generation of a draft.
	if x, found := cs.delivered.Get(payload.DraftId); found {
		last := x.(draftVersion)
		if last.generation == payload.Generation && last.version >= payload.Version {
			return
		}
	}
	cs.delivered.Set(payload.DraftId, draftVersion{generation: payload.Generation, version: payload.Version}, cache.DefaultExpiration)

	data, err := json.Marshal(map[string]interface{}{
		"type": "upload_progress",
		"data": payload,
	})
	if err != nil {
		return
	}
	cs.delivery.Send(payload.DraftId, data)
}
