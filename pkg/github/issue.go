package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/jcabi/jcabi-github-sub002/pkg/bulk"
	"github.com/jcabi/jcabi-github-sub002/pkg/pagination"
)

// Issue is a handle on one issue of a repository.
type Issue interface {
	bulk.Readable

	// Repo returns the repository the issue belongs to
	Repo() *Repo

	// Number returns the issue number
	Number() int

	// Comments returns the comments of the issue
	Comments() *Comments
}

// rtIssue reads its JSON with GET /repos/{owner}/{repo}/issues/{number}.
type rtIssue struct {
	repo   *Repo
	number int
}

func (i *rtIssue) Repo() *Repo {
	return i.repo
}

func (i *rtIssue) Number() int {
	return i.number
}

func (i *rtIssue) Comments() *Comments {
	return &Comments{issue: i}
}

func (i *rtIssue) JSON(ctx context.Context) (json.RawMessage, error) {
	return i.repo.github.get(ctx, i.path())
}

func (i *rtIssue) path() string {
	return fmt.Sprintf("%s/issues/%d", i.repo.coords.path(), i.number)
}

// materializedIssue answers JSON from a listing page.
type materializedIssue struct {
	Issue
	captured bulk.Captured
}

func (i *materializedIssue) JSON(ctx context.Context) (json.RawMessage, error) {
	return i.captured.JSON(ctx)
}

func materializeIssue(origin Issue, captured bulk.Captured) Issue {
	return &materializedIssue{Issue: origin, captured: captured}
}

// Issues is the issue collection of a repository.
type Issues struct {
	repo *Repo
}

// Get returns the handle of one issue. No request is made.
func (i *Issues) Get(number int) Issue {
	return &rtIssue{repo: i.repo, number: number}
}

// Listing returns the recipe for GET /repos/{owner}/{repo}/issues with params
// (state, labels, sort, direction, since, ...).
func (i *Issues) Listing(params url.Values) pagination.Listing[Issue] {
	return pagination.NewListing(
		i.repo.github.doer,
		i.repo.github.listing(i.repo.coords.path()+"/issues", params),
		i.mapper(),
	)
}

// Iterate lists issues. Each handle reads its JSON with its own request.
func (i *Issues) Iterate(params url.Values) *pagination.Sequence[Issue] {
	return i.Listing(params).Iterate()
}

// Bulk lists issues whose JSON is answered from the listing pages.
func (i *Issues) Bulk(params url.Values) *bulk.Sequence[Issue] {
	listing := i.Listing(params)
	return bulk.Listing(i.repo.github.doer, listing.Start(), i.mapper(), materializeIssue)
}

func (i *Issues) mapper() pagination.Mapper[Issue] {
	return func(element json.RawMessage) (Issue, error) {
		var v struct {
			Number int `json:"number"`
		}
		if err := json.Unmarshal(element, &v); err != nil {
			return nil, err
		}
		if v.Number <= 0 {
			return nil, fmt.Errorf("issue element without number")
		}
		return i.Get(v.Number), nil
	}
}

type issueDocument struct {
	Number      int       `json:"number"`
	Title       string    `json:"title"`
	State       string    `json:"state"`
	Body        string    `json:"body"`
	User        user      `json:"user"`
	Labels      []label   `json:"labels"`
	PullRequest *struct{} `json:"pull_request"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type user struct {
	Login string `json:"login"`
}

type label struct {
	Name string `json:"name"`
}

// SmartIssue reads issue fields through the issue's JSON. Wrapping a bulk
// issue costs no request; wrapping a plain handle costs one per field read.
type SmartIssue struct {
	Issue
}

// NewSmartIssue wraps an issue.
func NewSmartIssue(issue Issue) *SmartIssue {
	return &SmartIssue{Issue: issue}
}

func (s *SmartIssue) document(ctx context.Context) (*issueDocument, error) {
	data, err := s.JSON(ctx)
	if err != nil {
		return nil, err
	}
	var doc issueDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode issue #%d: %w", s.Number(), err)
	}
	return &doc, nil
}

// Title returns the issue title.
func (s *SmartIssue) Title(ctx context.Context) (string, error) {
	doc, err := s.document(ctx)
	if err != nil {
		return "", err
	}
	return doc.Title, nil
}

// State returns "open" or "closed".
func (s *SmartIssue) State(ctx context.Context) (string, error) {
	doc, err := s.document(ctx)
	if err != nil {
		return "", err
	}
	return doc.State, nil
}

// IsOpen reports whether the issue is open.
func (s *SmartIssue) IsOpen(ctx context.Context) (bool, error) {
	state, err := s.State(ctx)
	if err != nil {
		return false, err
	}
	return state == "open", nil
}

// Body returns the issue description.
func (s *SmartIssue) Body(ctx context.Context) (string, error) {
	doc, err := s.document(ctx)
	if err != nil {
		return "", err
	}
	return doc.Body, nil
}

// Author returns the login of the issue author.
func (s *SmartIssue) Author(ctx context.Context) (string, error) {
	doc, err := s.document(ctx)
	if err != nil {
		return "", err
	}
	return doc.User.Login, nil
}

// LabelNames returns the names of the labels attached to the issue.
func (s *SmartIssue) LabelNames(ctx context.Context) ([]string, error) {
	doc, err := s.document(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(doc.Labels))
	for _, l := range doc.Labels {
		names = append(names, l.Name)
	}
	return names, nil
}

// IsPullRequest reports whether the issue is a pull request.
// GitHub lists pull requests among issues.
func (s *SmartIssue) IsPullRequest(ctx context.Context) (bool, error) {
	doc, err := s.document(ctx)
	if err != nil {
		return false, err
	}
	return doc.PullRequest != nil, nil
}

// UpdatedAt returns when the issue was last updated.
func (s *SmartIssue) UpdatedAt(ctx context.Context) (time.Time, error) {
	doc, err := s.document(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return doc.UpdatedAt, nil
}
