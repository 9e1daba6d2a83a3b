package api

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/taskmark/internal/analytics"
	"github.com/starford/taskmark/internal/calendar"
	"github.com/starford/taskmark/internal/index"
	"github.com/starford/taskmark/internal/markup"
	"github.com/starford/taskmark/internal/models"
	"github.com/starford/taskmark/internal/projectservice"
	"github.com/starford/taskmark/internal/timer"
)

// CreateProjectRequest is the request body for creating a project.
type CreateProjectRequest struct {
	Name        string `json:"name" example:"Website Redesign" validate:"required"`
	Description string `json:"description" example:"Q3 refresh"`
	Color       string `json:"color" example:"#3b82f6"`
}

// Validate validates the request.
func (r *CreateProjectRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 120)),
		validation.Field(&r.Color, validation.By(optionalColor)),
	)
}

// UpdateContentRequest is the request body for replacing a document.
type UpdateContentRequest struct {
	Content string `json:"content" example:"# Plan\n- [ ] first" validate:"required"`
}

// Validate validates the request.
func (r *UpdateContentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Content, validation.Required),
	)
}

// UpdateMetaRequest is the request body for PATCH /projects/{path}/meta.
type UpdateMetaRequest struct {
	Name        string `json:"name" example:"Website Redesign" validate:"required"`
	Description string `json:"description"`
	Color       string `json:"color" example:"#ef4444"`
}

// Validate validates the request.
func (r *UpdateMetaRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 120)),
		validation.Field(&r.Color, validation.By(optionalColor)),
	)
}

// MutationRequest is the request body for POST /projects/{path}/lines.
type MutationRequest struct {
	projectservice.Mutation
}

// Validate validates the request.
func (r *MutationRequest) Validate() error {
	return validation.ValidateStruct(&r.Mutation,
		validation.Field(&r.Op, validation.Required, validation.In(
			projectservice.OpToggle, projectservice.OpSet, projectservice.OpDelete,
			projectservice.OpAppend, projectservice.OpTitle, projectservice.OpSchedule,
			projectservice.OpColor,
		)),
		validation.Field(&r.Line, validation.Min(0)),
	)
}

// ShareRequest optionally overrides the configured link lifetime.
type ShareRequest struct {
	// TTL is a Go duration string such as "72h"; "0" means no expiry.
	TTL string `json:"ttl,omitempty" example:"72h"`
}

// Validate validates the request.
func (r *ShareRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.TTL, validation.By(func(v any) error {
			if s, _ := v.(string); s != "" {
				if _, err := time.ParseDuration(s); err != nil {
					return validation.NewError("validation_ttl", "must be a duration like 72h")
				}
			}
			return nil
		})),
	)
}

// GenerateRequest is the request body for POST /projects/{path}/generate.
type GenerateRequest struct {
	Prompt string `json:"prompt" example:"Plan a product launch" validate:"required"`
}

// Validate validates the request.
func (r *GenerateRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Prompt, validation.Required, validation.Length(1, 4000)),
	)
}

// ParseRequest is the request body for POST /parse.
type ParseRequest struct {
	Content string `json:"content"`
}

// ParseResponse is the parsed form of a posted document.
type ParseResponse struct {
	Nodes  []markup.Node `json:"nodes" validate:"required"`
	Counts markup.Counts `json:"counts" validate:"required"`
}

// ScheduleTaskRequest adds a scheduled task line to a project.
type ScheduleTaskRequest struct {
	Project string `json:"project" example:"work.md" validate:"required"`
	Title   string `json:"title" example:"Dentist"`
	Date    string `json:"date" example:"2024-03-15" validate:"required"`
	Time    string `json:"time,omitempty" example:"14:30"`
	Color   string `json:"color,omitempty" example:"#ef4444"`
}

// Validate validates the request.
func (r *ScheduleTaskRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Project, validation.Required),
		validation.Field(&r.Title, validation.By(plainTitle)),
		validation.Field(&r.Date, validation.Required, validation.Date(markup.DateLayout)),
		validation.Field(&r.Time, validation.Date("15:04")),
		validation.Field(&r.Color, validation.By(optionalColor)),
	)
}

// EventRequest is the request body for creating or updating an event.
type EventRequest = calendar.EventInput

// StartSessionRequest is the request body for POST /timer/sessions.
type StartSessionRequest struct {
	Type   models.SessionType `json:"session_type" example:"work" validate:"required"`
	TaskID string             `json:"task_id,omitempty"`
}

// Validate validates the request.
func (r *StartSessionRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Type, validation.Required, validation.In(
			models.SessionWork, models.SessionBreak, models.SessionLongBreak,
		)),
	)
}

// ProjectListResponse wraps project listings.
type ProjectListResponse struct {
	Projects []models.Project `json:"projects" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// CalendarResponse wraps agenda entries.
type CalendarResponse struct {
	From    time.Time        `json:"from"`
	To      time.Time        `json:"to"`
	Entries []calendar.Entry `json:"entries" validate:"required"`
}

// NextSessionResponse names the session that should follow.
type NextSessionResponse struct {
	Next     models.SessionType `json:"next" example:"break"`
	Duration int                `json:"duration" example:"300"`
}

// AnalyticsResponse is the analytics report.
type AnalyticsResponse = analytics.Report

// FinishedSessionResponse is returned when a session ends.
type FinishedSessionResponse = timer.Finished

func optionalColor(v any) error {
	if s, _ := v.(string); s != "" && !markup.ValidColor(s) {
		return validation.NewError("validation_color", "must be a #rrggbb color")
	}
	return nil
}

func plainTitle(v any) error {
	if s, _ := v.(string); !markup.PlainTitle(s) {
		return validation.NewError("validation_title", "must be one line without schedule or color tokens")
	}
	return nil
}
