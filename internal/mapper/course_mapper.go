package mapper

import (
	"strings"

	"course-notes-admin/internal/courseapi"
	"course-notes-admin/internal/dto"
)

type CourseMapper struct{}

func NewCourseMapper() *CourseMapper {
	return &CourseMapper{}
}

// CategoryHeading turns "computer-science" into "COMPUTER SCIENCE".
func (m *CourseMapper) CategoryHeading(category string) string {
	return strings.ToUpper(strings.Join(strings.Split(category, "-"), " "))
}

func (m *CourseMapper) ToSummaries(category string, courses []courseapi.Course) []dto.CourseSummary {
	summaries := make([]dto.CourseSummary, 0, len(courses))
	for _, c := range courses {
		summaries = append(summaries, dto.CourseSummary{
			Id:    c.CourseId,
			Title: c.Title,
			Href:  "/" + category + "/course/" + c.CourseId,
		})
	}
	return summaries
}
