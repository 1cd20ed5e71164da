package domain

import (
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Competitor
var (
	ErrEmptyCompetitorID   = errors.New("competitor ID cannot be empty")
	ErrEmptyCompetitorName = errors.New("competitor name cannot be empty")
	ErrInvalidRepoOwner    = errors.New("invalid repository owner")
	ErrInvalidRepoName     = errors.New("invalid repository name")
)

// repoSlugPattern matches valid GitHub owner and repository name segments.
var repoSlugPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Competitor represents a GitHub repository tracked for comparative
// analysis. Owner and Repo identify the repository on the hosting API;
// Name is the display name used in reports.
type Competitor struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Owner     string    `json:"owner"`
	Repo      string    `json:"repo"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCompetitor creates a new Competitor with the given display name and
// repository coordinates. It generates a new UUID and sets the timestamps.
// Returns an error if validation fails.
func NewCompetitor(name, owner, repo string) (*Competitor, error) {
	now := time.Now().UTC()
	c := &Competitor{
		ID:        uuid.New(),
		Name:      name,
		Owner:     owner,
		Repo:      repo,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Validate checks if the Competitor has valid data.
// Returns an error if any field fails validation.
func (c *Competitor) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyCompetitorID
	}

	if c.Name == "" {
		return ErrEmptyCompetitorName
	}

	if !repoSlugPattern.MatchString(c.Owner) {
		return ErrInvalidRepoOwner
	}

	if !repoSlugPattern.MatchString(c.Repo) {
		return ErrInvalidRepoName
	}

	return nil
}

// Slug returns the owner/repo form used in log output and cache keys.
func (c *Competitor) Slug() string {
	return c.Owner + "/" + c.Repo
}
