package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const PDFContentType = "application/pdf"

type DraftState string

const (
	DraftIdle         DraftState = "IDLE"
	DraftFileSelected DraftState = "FILE_SELECTED"
	DraftUploading    DraftState = "UPLOADING"
	DraftSubmitting   DraftState = "SUBMITTING"
	DraftDone         DraftState = "DONE"
	DraftFailed       DraftState = "FAILED"
)

// User-visible status messages.
const (
	MsgSelectPDF       = "Please select a PDF file."
	MsgSelectFile      = "Please select a file to upload."
	MsgUploading       = "Uploading file..."
	MsgAddingDetails   = "File uploaded.  Adding note details..."
	MsgNoteAdded       = "Note Added Successfully!"
	MsgAddNoteFallback = "Error adding note."
	MsgUploadErrorFmt  = "Upload Error: %s"
	MsgUnexpected      = "An unexpected error occurred."
	MsgUploadInFlight  = "An upload is already in progress."
)

var (
	ErrNotPDF           = errors.New("selected file is not a PDF")
	ErrNoFile           = errors.New("no file selected")
	ErrUploadInProgress = errors.New("upload already in progress")
)

// DraftFile is the selected blob. It is never mutated after selection.
type DraftFile struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

// NoteDraft is the note an admin is composing for one route key.
type NoteDraft struct {
	Id             string
	RouteKey       RouteKey
	Name           string
	File           *DraftFile
	UploadProgress float64
	Message        string
	Success        bool
	State          DraftState
	// Generation identifies one lifetime of the draft. An expired draft comes
	// back under the same Id with a new Generation and Version restarting.
	Generation string
	// Version grows with every stored change within a Generation; progress
	// frames carry both so consumers can discard stale ones.
	Version   int64
	UpdatedAt time.Time
}

func NewNoteDraft(id string, key RouteKey) *NoteDraft {
	return &NoteDraft{
		Id:         id,
		RouteKey:   key,
		State:      DraftIdle,
		Generation: uuid.New().String(),
		UpdatedAt:  time.Now(),
	}
}

// DraftId scopes a draft to a browser session and a route key.
func DraftId(sessionId string, key RouteKey) string {
	return sessionId + "|" + key.String()
}

// SelectFile stores a PDF or clears the selection. A nil candidate is ignored.
func (d *NoteDraft) SelectFile(file *DraftFile) error {
	if file == nil {
		return nil
	}
	if d.InFlight() {
		return ErrUploadInProgress
	}
	d.UpdatedAt = time.Now()
	if file.ContentType != PDFContentType {
		d.File = nil
		d.Message = MsgSelectPDF
		d.Success = false
		d.State = DraftIdle
		return ErrNotPDF
	}
	d.File = file
	d.Message = ""
	d.Success = false
	d.State = DraftFileSelected
	return nil
}

// BeginUpload starts a new attempt and resets progress to zero. A draft that
// is already uploading or submitting is left untouched.
func (d *NoteDraft) BeginUpload() error {
	if d.InFlight() {
		return ErrUploadInProgress
	}
	d.UpdatedAt = time.Now()
	if d.File == nil {
		d.Message = MsgSelectFile
		d.Success = false
		return ErrNoFile
	}
	d.UploadProgress = 0
	d.Message = MsgUploading
	d.Success = false
	d.State = DraftUploading
	return nil
}

// ReportProgress records bytesTransferred/totalBytes as a percentage. Within
// an attempt the value never decreases and never exceeds 100.
func (d *NoteDraft) ReportProgress(bytesTransferred, totalBytes int64) float64 {
	if d.State != DraftUploading || totalBytes <= 0 {
		return d.UploadProgress
	}
	progress := float64(bytesTransferred) / float64(totalBytes) * 100
	if progress > 100 {
		progress = 100
	}
	if progress > d.UploadProgress {
		d.UploadProgress = progress
		d.UpdatedAt = time.Now()
	}
	return d.UploadProgress
}

func (d *NoteDraft) UploadComplete() {
	d.UploadProgress = 100
	d.Message = MsgAddingDetails
	d.State = DraftSubmitting
	d.UpdatedAt = time.Now()
}

// Fail keeps every field so the admin can resubmit.
func (d *NoteDraft) Fail(message string) {
	d.Message = message
	d.Success = false
	d.State = DraftFailed
	d.UpdatedAt = time.Now()
}

func (d *NoteDraft) Succeed() {
	d.Name = ""
	d.File = nil
	d.UploadProgress = 0
	d.Message = MsgNoteAdded
	d.Success = true
	d.State = DraftDone
	d.UpdatedAt = time.Now()
}

func (d *NoteDraft) InFlight() bool {
	return d.State == DraftUploading || d.State == DraftSubmitting
}

// SubmitDisabled is true while an upload is running with 0 < progress < 100.
// A failed attempt keeps its partial progress but can be resubmitted.
func (d *NoteDraft) SubmitDisabled() bool {
	return d.State == DraftUploading && d.UploadProgress > 0 && d.UploadProgress < 100
}
