package api

import (
	"time"

	"github.com/watchtowerhq/watchtower-api/internal/domain"
)

// CreateCompetitorRequest represents the request body for tracking a new
// competitor repository.
type CreateCompetitorRequest struct {
	Name  string `json:"name"  validate:"required,min=1,max=100"`
	Owner string `json:"owner" validate:"required,min=1,max=100"`
	Repo  string `json:"repo"  validate:"required,min=1,max=100"`
}

// CompetitorResponse represents the response data for a tracked competitor.
type CompetitorResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Owner     string    `json:"owner"`
	Repo      string    `json:"repo"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReportResponse represents the response data for a weekly report.
// Content is omitted while generation is still in progress.
type ReportResponse struct {
	ID           string                `json:"id"`
	WeekKey      string                `json:"week_key"`
	Status       string                `json:"status"`
	Content      *domain.ReportContent `json:"content,omitempty"`
	ErrorMessage string                `json:"error_message,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// ReportSummaryResponse is the condensed report representation used in
// list responses, without the full content payload.
type ReportSummaryResponse struct {
	ID        string    `json:"id"`
	WeekKey   string    `json:"week_key"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// competitorToResponse converts a domain.Competitor to a CompetitorResponse.
func competitorToResponse(c *domain.Competitor) CompetitorResponse {
	return CompetitorResponse{
		ID:        c.ID.String(),
		Name:      c.Name,
		Owner:     c.Owner,
		Repo:      c.Repo,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// reportToResponse converts a domain.Report to a ReportResponse.
func reportToResponse(r *domain.Report) ReportResponse {
	return ReportResponse{
		ID:           r.ID.String(),
		WeekKey:      r.WeekKey,
		Status:       string(r.Status),
		Content:      r.Content,
		ErrorMessage: r.ErrorMessage,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// reportToSummary converts a domain.Report to a ReportSummaryResponse.
func reportToSummary(r *domain.Report) ReportSummaryResponse {
	return ReportSummaryResponse{
		ID:        r.ID.String(),
		WeekKey:   r.WeekKey,
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
