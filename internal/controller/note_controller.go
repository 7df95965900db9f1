package controller

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"course-notes-admin/internal/entity"
	"course-notes-admin/internal/mapper"
	"course-notes-admin/internal/pkg/serverutils"
	"course-notes-admin/internal/service"
	"course-notes-admin/internal/view"

	"github.com/gofiber/fiber/v2"
)

const addNotesRoute = "/:category/course/:courseId/:unitId/:topicId/add-notes"

type INoteController interface {
	RegisterPages(r fiber.Router)
	ShowAddNotes(ctx *fiber.Ctx) error
	SubmitNote(ctx *fiber.Ctx) error
	SelectFile(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
}

type noteController struct {
	noteService service.INoteService
	renderer    *view.Renderer
	mapper      *mapper.NoteDraftMapper
}

func NewNoteController(noteService service.INoteService, renderer *view.Renderer) INoteController {
	return &noteController{
		noteService: noteService,
		renderer:    renderer,
		mapper:      mapper.NewNoteDraftMapper(),
	}
}

func (c *noteController) RegisterPages(r fiber.Router) {
	r.Get(addNotesRoute, c.ShowAddNotes)
	r.Post(addNotesRoute, c.SubmitNote)
	r.Post(addNotesRoute+"/file", c.SelectFile)
	r.Get(addNotesRoute+"/status", c.Status)
}

func (c *noteController) ShowAddNotes(ctx *fiber.Ctx) error {
	key, draftId, err := c.draftScope(ctx)
	if err != nil {
		return err
	}

	draft := c.noteService.Draft(ctx.UserContext(), draftId, key)
	return c.render(ctx, key, &draft)
}

// SubmitNote handles the classic form post: an attached file is selected
// first, then the draft is uploaded and submitted.
func (c *noteController) SubmitNote(ctx *fiber.Ctx) error {
	key, draftId, err := c.draftScope(ctx)
	if err != nil {
		return err
	}

	file, err := readDraftFile(ctx)
	if err != nil {
		return err
	}

	if file != nil {
		draft, err := c.noteService.SelectFile(ctx.UserContext(), draftId, key, file)
		if err != nil {
			ctx.Status(statusFor(err))
			return c.render(ctx, key, withInFlightMessage(&draft, err))
		}
	}

	draft, err := c.noteService.Submit(ctx.UserContext(), draftId, key, ctx.FormValue("name"))
	ctx.Status(statusFor(err))
	return c.render(ctx, key, withInFlightMessage(&draft, err))
}

func (c *noteController) SelectFile(ctx *fiber.Ctx) error {
	key, draftId, err := c.draftScope(ctx)
	if err != nil {
		return err
	}

	file, err := readDraftFile(ctx)
	if err != nil {
		return err
	}
	if file == nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, entity.MsgSelectFile))
	}

	draft, err := c.noteService.SelectFile(ctx.UserContext(), draftId, key, file)
	if err != nil {
		status := statusFor(err)
		return ctx.Status(status).JSON(serverutils.ErrorResponse(status, withInFlightMessage(&draft, err).Message))
	}
	return ctx.JSON(serverutils.SuccessResponse("File selected", c.mapper.ToResponse(&draft)))
}

func (c *noteController) Status(ctx *fiber.Ctx) error {
	key, draftId, err := c.draftScope(ctx)
	if err != nil {
		return err
	}

	draft := c.noteService.Draft(ctx.UserContext(), draftId, key)
	return ctx.JSON(serverutils.SuccessResponse("Draft status", c.mapper.ToResponse(&draft)))
}

func (c *noteController) draftScope(ctx *fiber.Ctx) (entity.RouteKey, string, error) {
	key, err := RouteKeyFromParams(ctx)
	if err != nil {
		return entity.RouteKey{}, "", fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return key, entity.DraftId(serverutils.SessionID(ctx), key), nil
}

func (c *noteController) render(ctx *fiber.Ctx, key entity.RouteKey, draft *entity.NoteDraft) error {
	ctx.Type("html", "utf-8")
	return c.renderer.Render(ctx, "add_notes", view.AddNotesPageData{
		PageData:    view.PageData{Title: "Add Note"},
		Draft:       c.mapper.ToResponse(draft),
		CourseURL:   key.CoursePath(),
		FormAction:  key.AddNotesPath(),
		StatusURL:   key.AddNotesPath() + "/status",
		ProgressURL: "/ws/" + key.String(),
	})
}

// RouteKeyFromParams resolves the typed route parameters shared by the note routes.
func RouteKeyFromParams(ctx *fiber.Ctx) (entity.RouteKey, error) {
	return entity.NewRouteKey(
		ctx.Params("category"),
		ctx.Params("courseId"),
		ctx.Params("unitId"),
		ctx.Params("topicId"),
	)
}

// readDraftFile returns nil when the request carries no file part.
func readDraftFile(ctx *fiber.Ctx) (*entity.DraftFile, error) {
	fh, err := ctx.FormFile("file")
	if err != nil || fh == nil || (fh.Filename == "" && fh.Size == 0) {
		return nil, nil
	}
	return loadFileHeader(fh)
}

func loadFileHeader(fh *multipart.FileHeader) (*entity.DraftFile, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open uploaded file: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read uploaded file: %w", err)
	}

	contentType := strings.TrimSpace(strings.Split(fh.Header.Get("Content-Type"), ";")[0])
	return &entity.DraftFile{
		Name:        fh.Filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
	}, nil
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.Is(err, entity.ErrNotPDF), errors.Is(err, entity.ErrNoFile):
		return fiber.StatusBadRequest
	case errors.Is(err, entity.ErrUploadInProgress):
		return fiber.StatusConflict
	default:
		// storage, remote API and transport failures
		return fiber.StatusBadGateway
	}
}

// withInFlightMessage shows the in-flight notice on this response only; the
// stored draft keeps its running status.
func withInFlightMessage(draft *entity.NoteDraft, err error) *entity.NoteDraft {
	if errors.Is(err, entity.ErrUploadInProgress) {
		draft.Message = entity.MsgUploadInFlight
		draft.Success = false
	}
	return draft
}
