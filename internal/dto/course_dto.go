package dto

type CourseSummary struct {
	Id    string `json:"course_id"`
	Title string `json:"title"`
	Href  string `json:"href"`
}

type CategoryCoursesResponse struct {
	Category string          `json:"category"`
	Heading  string          `json:"heading"`
	Courses  []CourseSummary `json:"courses"`
}
