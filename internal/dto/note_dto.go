package dto

import "time"

type SelectedFileResponse struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// NoteDraftResponse is the externally visible state of a draft. File bytes are never exposed.
type NoteDraftResponse struct {
	RouteKey       string                `json:"route_key"`
	Name           string                `json:"name"`
	File           *SelectedFileResponse `json:"file"`
	UploadProgress float64               `json:"upload_progress"`
	Message        string                `json:"message"`
	Success        bool                  `json:"success"`
	State          string                `json:"state"`
	SubmitDisabled bool                  `json:"submit_disabled"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// UploadProgressMessage travels over the progress bus and out to websocket clients.
type UploadProgressMessage struct {
	DraftId        string  `json:"draft_id"`
	Generation     string  `json:"generation"`
	Version        int64   `json:"version"`
	RouteKey       string  `json:"route_key"`
	State          string  `json:"state"`
	UploadProgress float64 `json:"upload_progress"`
	Message        string  `json:"message"`
	Success        bool    `json:"success"`
}
