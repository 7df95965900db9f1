package service

import (
	"context"
	"encoding/json"

	"course-notes-admin/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

const UploadProgressTopic = "upload.progress"

type IPublisherService interface {
	PublishProgress(ctx context.Context, msg dto.UploadProgressMessage) error
}

type publisherService struct {
	topicName string
	publisher message.Publisher
}

func NewPublisherService(topicName string, publisher message.Publisher) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
	}
}

func (ps *publisherService) PublishProgress(ctx context.Context, msg dto.UploadProgressMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	m := message.NewMessage(watermill.NewUUID(), payload)
	m.SetContext(ctx)

	return ps.publisher.Publish(ps.topicName, m)
}
