package controller

import (
	"course-notes-admin/internal/pkg/serverutils"
	"course-notes-admin/internal/service"
	"course-notes-admin/internal/view"

	"github.com/gofiber/fiber/v2"
)

type ICourseController interface {
	RegisterRoutes(r fiber.Router)
	RegisterPages(r fiber.Router)
	ShowCategory(ctx *fiber.Ctx) error
	ListCourses(ctx *fiber.Ctx) error
}

type courseController struct {
	courseService service.ICourseService
	renderer      *view.Renderer
}

func NewCourseController(courseService service.ICourseService, renderer *view.Renderer) ICourseController {
	return &courseController{
		courseService: courseService,
		renderer:      renderer,
	}
}

func (c *courseController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/categories")
	h.Get("/:category/courses", c.ListCourses)
}

func (c *courseController) RegisterPages(r fiber.Router) {
	r.Get("/:category", c.ShowCategory)
}

func (c *courseController) ShowCategory(ctx *fiber.Ctx) error {
	res := c.courseService.ListForCategory(ctx.UserContext(), ctx.Params("category"))

	ctx.Type("html", "utf-8")
	return c.renderer.Render(ctx, "category", view.CategoryPageData{
		PageData: view.PageData{Title: res.Heading + " Courses"},
		Category: res,
	})
}

func (c *courseController) ListCourses(ctx *fiber.Ctx) error {
	res := c.courseService.ListForCategory(ctx.UserContext(), ctx.Params("category"))
	return ctx.JSON(serverutils.SuccessResponse("Success list courses", res))
}
