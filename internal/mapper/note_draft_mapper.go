package mapper

import (
	"course-notes-admin/internal/dto"
	"course-notes-admin/internal/entity"
)

type NoteDraftMapper struct{}

func NewNoteDraftMapper() *NoteDraftMapper {
	return &NoteDraftMapper{}
}

func (m *NoteDraftMapper) ToResponse(d *entity.NoteDraft) *dto.NoteDraftResponse {
	if d == nil {
		return nil
	}

	var file *dto.SelectedFileResponse
	if d.File != nil {
		file = &dto.SelectedFileResponse{
			Name:        d.File.Name,
			ContentType: d.File.ContentType,
			Size:        d.File.Size,
		}
	}

	return &dto.NoteDraftResponse{
		RouteKey:       d.RouteKey.String(),
		Name:           d.Name,
		File:           file,
		UploadProgress: d.UploadProgress,
		Message:        d.Message,
		Success:        d.Success,
		State:          string(d.State),
		SubmitDisabled: d.SubmitDisabled(),
		UpdatedAt:      d.UpdatedAt,
	}
}

func (m *NoteDraftMapper) ToProgressMessage(d *entity.NoteDraft) dto.UploadProgressMessage {
	return dto.UploadProgressMessage{
		DraftId:        d.Id,
		Generation:     d.Generation,
		Version:        d.Version,
		RouteKey:       d.RouteKey.String(),
		State:          string(d.State),
		UploadProgress: d.UploadProgress,
		Message:        d.Message,
		Success:        d.Success,
	}
}
