package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"course-notes-admin/internal/courseapi"
	"course-notes-admin/internal/entity"
	"course-notes-admin/internal/mapper"
	"course-notes-admin/internal/pkg/logger"
	"course-notes-admin/internal/repository/contract"
	"course-notes-admin/pkg/events"
	"course-notes-admin/pkg/objectstore"
)

// UploadError wraps a storage failure during the upload step.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed: %v", e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// EventPublisher is satisfied by the NATS publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type INoteService interface {
	Draft(ctx context.Context, draftId string, key entity.RouteKey) entity.NoteDraft
	SelectFile(ctx context.Context, draftId string, key entity.RouteKey, file *entity.DraftFile) (entity.NoteDraft, error)
	Submit(ctx context.Context, draftId string, key entity.RouteKey, name string) (entity.NoteDraft, error)
}

type noteService struct {
	drafts   contract.NoteDraftRepository
	store    objectstore.Store
	api      courseapi.ICourseAPI
	progress IPublisherService
	events   EventPublisher
	mapper   *mapper.NoteDraftMapper
	logger   logger.ILogger
}

// NewNoteService wires the upload-then-submit flow. events may be nil.
func NewNoteService(
	drafts contract.NoteDraftRepository,
	store objectstore.Store,
	api courseapi.ICourseAPI,
	progress IPublisherService,
	eventPublisher EventPublisher,
	log logger.ILogger,
) INoteService {
	return &noteService{
		drafts:   drafts,
		store:    store,
		api:      api,
		progress: progress,
		events:   eventPublisher,
		mapper:   mapper.NewNoteDraftMapper(),
		logger:   log,
	}
}

func (s *noteService) Draft(ctx context.Context, draftId string, key entity.RouteKey) entity.NoteDraft {
	return s.drafts.Get(draftId, key)
}

func (s *noteService) SelectFile(ctx context.Context, draftId string, key entity.RouteKey, file *entity.DraftFile) (entity.NoteDraft, error) {
	draft, err := s.drafts.Update(draftId, key, func(d *entity.NoteDraft) error {
		return d.SelectFile(file)
	})
	if err != nil {
		s.logger.Info("NOTE", "File selection rejected", map[string]interface{}{
			"route_key": key.String(),
			"reason":    err.Error(),
		})
	}
	return draft, err
}

// Submit uploads the selected file and then posts its URL and name to the
// course API. Validation failures return before any network call. A panic past
// that point fails the draft so it can be resubmitted.
func (s *noteService) Submit(ctx context.Context, draftId string, key entity.RouteKey, name string) (result entity.NoteDraft, err error) {
	var file *entity.DraftFile
	draft, err := s.drafts.Update(draftId, key, func(d *entity.NoteDraft) error {
		if !d.InFlight() {
			d.Name = name
		}
		if err := d.BeginUpload(); err != nil {
			return err
		}
		file = d.File
		return nil
	})
	if err != nil {
		return draft, err
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("NOTE", "Recovered from panic during submit", map[string]interface{}{
				"route_key": key.String(),
				"error":     fmt.Sprint(r),
			})
			result, err = s.fail(ctx, draftId, key, entity.MsgUnexpected, fmt.Errorf("submit panicked: %v", r))
		}
	}()

	s.publishProgress(ctx, &draft)

	objectKey := objectstore.NoteKey(file.Name)
	downloadURL, err := s.store.Upload(ctx, objectKey, bytes.NewReader(file.Data), file.Size, file.ContentType,
		func(p objectstore.Progress) {
			snapshot, _ := s.drafts.Update(draftId, key, func(d *entity.NoteDraft) error {
				d.ReportProgress(p.BytesTransferred, p.TotalBytes)
				return nil
			})
			s.publishProgress(ctx, &snapshot)
		})
	if err != nil {
		s.logger.Error("NOTE", "Object storage upload failed", map[string]interface{}{
			"route_key":  key.String(),
			"object_key": objectKey,
			"error":      err.Error(),
		})
		return s.fail(ctx, draftId, key, fmt.Sprintf(entity.MsgUploadErrorFmt, err.Error()), &UploadError{Err: err})
	}

	draft, _ = s.drafts.Update(draftId, key, func(d *entity.NoteDraft) error {
		d.UploadComplete()
		return nil
	})
	s.publishProgress(ctx, &draft)

	err = s.api.AddNote(ctx, key, courseapi.AddNoteRequest{Url: downloadURL, Name: name})
	if err != nil {
		var apiErr *courseapi.APIError
		message := entity.MsgUnexpected
		if errors.As(err, &apiErr) {
			message = entity.MsgAddNoteFallback
			if apiErr.Message != "" {
				message = apiErr.Message
			}
		}
		s.logger.Error("NOTE", "Adding note details failed", map[string]interface{}{
			"route_key": key.String(),
			"url":       downloadURL,
			"error":     err.Error(),
		})
		return s.fail(ctx, draftId, key, message, err)
	}

	draft, _ = s.drafts.Update(draftId, key, func(d *entity.NoteDraft) error {
		d.Succeed()
		return nil
	})
	s.publishProgress(ctx, &draft)

	s.logger.Info("NOTE", "Note added", map[string]interface{}{
		"route_key": key.String(),
		"name":      name,
		"url":       downloadURL,
	})
	s.publishNoteAdded(ctx, key, name, downloadURL)

	return draft, nil
}

func (s *noteService) fail(ctx context.Context, draftId string, key entity.RouteKey, message string, cause error) (entity.NoteDraft, error) {
	draft, _ := s.drafts.Update(draftId, key, func(d *entity.NoteDraft) error {
		d.Fail(message)
		return nil
	})
	s.publishProgress(ctx, &draft)
	return draft, cause
}

func (s *noteService) publishProgress(ctx context.Context, draft *entity.NoteDraft) {
	if s.progress == nil {
		return
	}
	if err := s.progress.PublishProgress(ctx, s.mapper.ToProgressMessage(draft)); err != nil {
		s.logger.Warn("NOTE", "Failed to publish upload progress", map[string]interface{}{
			"draft_id": draft.Id,
			"error":    err.Error(),
		})
	}
}

func (s *noteService) publishNoteAdded(ctx context.Context, key entity.RouteKey, name, url string) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, events.NewNoteAddedEvent(key.String(), name, url)); err != nil {
		s.logger.Warn("NOTE", "Failed to publish note event", map[string]interface{}{
			"route_key": key.String(),
			"error":     err.Error(),
		})
	}
}
