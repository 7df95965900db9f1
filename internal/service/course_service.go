package service

import (
	"context"

	"course-notes-admin/internal/courseapi"
	"course-notes-admin/internal/dto"
	"course-notes-admin/internal/mapper"
	"course-notes-admin/internal/pkg/logger"
)

type ICourseService interface {
	// ListForCategory never fails: a broken fetch is logged and yields no courses.
	ListForCategory(ctx context.Context, category string) *dto.CategoryCoursesResponse
}

type courseService struct {
	api    courseapi.ICourseAPI
	mapper *mapper.CourseMapper
	logger logger.ILogger
}

func NewCourseService(api courseapi.ICourseAPI, log logger.ILogger) ICourseService {
	return &courseService{
		api:    api,
		mapper: mapper.NewCourseMapper(),
		logger: log,
	}
}

func (s *courseService) ListForCategory(ctx context.Context, category string) *dto.CategoryCoursesResponse {
	response := &dto.CategoryCoursesResponse{
		Category: category,
		Heading:  s.mapper.CategoryHeading(category),
		Courses:  []dto.CourseSummary{},
	}

	courses, err := s.api.CoursesForCategory(ctx, category)
	if err != nil {
		s.logger.Error("COURSE", "Error fetching courses", map[string]interface{}{
			"category": category,
			"error":    err.Error(),
		})
		return response
	}

	response.Courses = s.mapper.ToSummaries(category, courses)
	return response
}
