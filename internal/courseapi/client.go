package courseapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"course-notes-admin/internal/entity"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("course-notes-admin/courseapi")

type Course struct {
	CourseId string `json:"courseId"`
	Title    string `json:"title"`
}

type AddNoteRequest struct {
	Url  string `json:"url"`
	Name string `json:"name"`
}

// APIError is a non-2xx answer from the remote API. Message is the server's
// "message" field and may be empty.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("course api responded %d", e.StatusCode)
	}
	return fmt.Sprintf("course api responded %d: %s", e.StatusCode, e.Message)
}

type ICourseAPI interface {
	CoursesForCategory(ctx context.Context, category string) ([]Course, error)
	AddNote(ctx context.Context, key entity.RouteKey, req AddNoteRequest) error
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient talks to the remote course API. A zero timeout means none.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) CoursesForCategory(ctx context.Context, category string) ([]Course, error) {
	ctx, span := tracer.Start(ctx, "courseapi.CoursesForCategory")
	defer span.End()
	span.SetAttributes(attribute.String("course.category", category))

	params := url.Values{}
	params.Add("courseCategory", category)
	endpoint := c.baseURL + "/get-courses-for-category?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, fmt.Errorf("fetch courses for %q: %w", category, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read courses response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: decodeMessage(body)}
		span.SetStatus(codes.Error, apiErr.Error())
		return nil, apiErr
	}

	var courses []Course
	if err := json.Unmarshal(body, &courses); err != nil {
		return nil, fmt.Errorf("decode courses response: %w", err)
	}
	span.SetAttributes(attribute.Int("course.count", len(courses)))

	return courses, nil
}

func (c *Client) AddNote(ctx context.Context, key entity.RouteKey, note AddNoteRequest) error {
	ctx, span := tracer.Start(ctx, "courseapi.AddNote")
	defer span.End()
	span.SetAttributes(attribute.String("note.route_key", key.String()))

	payload, err := json.Marshal(note)
	if err != nil {
		return err
	}

	endpoint := c.baseURL + "/admin/" + key.String() + "/addNotes"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return fmt.Errorf("post note to %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: decodeMessage(body)}
	span.SetStatus(codes.Error, apiErr.Error())
	return apiErr
}

func decodeMessage(body []byte) string {
	var result struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return ""
	}
	return result.Message
}
