package github

import "time"

// Release is a published release of a repository as returned by
// GET /repos/{owner}/{repo}/releases.
type Release struct {
	TagName     string     `json:"tag_name"`
	Name        string     `json:"name"`
	Body        string     `json:"body"`
	Draft       bool       `json:"draft"`
	Prerelease  bool       `json:"prerelease"`
	PublishedAt *time.Time `json:"published_at"`
	HTMLURL     string     `json:"html_url"`
}

// Label is an issue label.
type Label struct {
	Name string `json:"name"`
}

// Issue is an issue (or pull request; GitHub returns both from the issues
// endpoint) as returned by GET /repos/{owner}/{repo}/issues.
type Issue struct {
	Number      int        `json:"number"`
	Title       string     `json:"title"`
	State       string     `json:"state"`
	Labels      []Label    `json:"labels"`
	Comments    int        `json:"comments"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	HTMLURL     string     `json:"html_url"`
	PullRequest *struct{}  `json:"pull_request,omitempty"`
	ClosedAt    *time.Time `json:"closed_at"`
}

// IsPullRequest reports whether the issue row actually represents a pull
// request.
func (i *Issue) IsPullRequest() bool {
	return i.PullRequest != nil
}

// RepoSnapshot bundles the repository metadata fetched for one competitor:
// its recent releases and the issues updated within the analysis window.
type RepoSnapshot struct {
	Owner     string    `json:"owner"`
	Repo      string    `json:"repo"`
	Releases  []Release `json:"releases"`
	Issues    []Issue   `json:"issues"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Slug returns the owner/repo form of the snapshot's repository.
func (s *RepoSnapshot) Slug() string {
	return s.Owner + "/" + s.Repo
}
