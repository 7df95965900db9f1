package entity

import (
	"errors"
	"fmt"
	"strings"
)

const addNotesSuffix = "add-notes"

var ErrInvalidRouteKey = errors.New("invalid route key")

// RouteKey addresses where a note belongs: category/course/unit/topic.
type RouteKey struct {
	Category string
	CourseId string
	UnitId   string
	TopicId  string
}

func NewRouteKey(category, courseId, unitId, topicId string) (RouteKey, error) {
	key := RouteKey{
		Category: strings.TrimSpace(category),
		CourseId: strings.TrimSpace(courseId),
		UnitId:   strings.TrimSpace(unitId),
		TopicId:  strings.TrimSpace(topicId),
	}
	for _, segment := range []string{key.Category, key.CourseId, key.UnitId, key.TopicId} {
		if segment == "" || strings.Contains(segment, "/") {
			return RouteKey{}, fmt.Errorf("%w: bad segment %q", ErrInvalidRouteKey, segment)
		}
	}
	return key, nil
}

// ParseRouteKey accepts "/{category}/course/{course}/{unit}/{topic}" with an
// optional trailing "/add-notes". Any other shape is rejected.
func ParseRouteKey(path string) (RouteKey, error) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) == 6 && segments[5] == addNotesSuffix {
		segments = segments[:5]
	}
	if len(segments) != 5 || segments[1] != "course" {
		return RouteKey{}, fmt.Errorf("%w: unexpected path %q", ErrInvalidRouteKey, path)
	}
	return NewRouteKey(segments[0], segments[2], segments[3], segments[4])
}

func (k RouteKey) String() string {
	return strings.Join([]string{k.Category, "course", k.CourseId, k.UnitId, k.TopicId}, "/")
}

func (k RouteKey) AddNotesPath() string {
	return "/" + k.String() + "/" + addNotesSuffix
}

func (k RouteKey) CoursePath() string {
	return "/" + k.Category + "/course/" + k.CourseId
}
