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

// Comment is a handle on one issue comment.
type Comment interface {
	bulk.Readable

	// Issue returns the issue the comment was listed from
	Issue() Issue

	// ID returns the comment identifier
	ID() int64
}

// rtComment reads its JSON with GET /repos/{owner}/{repo}/issues/comments/{id}.
type rtComment struct {
	issue Issue
	id    int64
}

func (c *rtComment) Issue() Issue {
	return c.issue
}

func (c *rtComment) ID() int64 {
	return c.id
}

func (c *rtComment) JSON(ctx context.Context) (json.RawMessage, error) {
	repo := c.issue.Repo()
	return repo.github.get(ctx, fmt.Sprintf("%s/issues/comments/%d", repo.coords.path(), c.id))
}

type materializedComment struct {
	Comment
	captured bulk.Captured
}

func (c *materializedComment) JSON(ctx context.Context) (json.RawMessage, error) {
	return c.captured.JSON(ctx)
}

func materializeComment(origin Comment, captured bulk.Captured) Comment {
	return &materializedComment{Comment: origin, captured: captured}
}

// Comments is the comment collection of an issue.
type Comments struct {
	issue Issue
}

// Get returns the handle of one comment. No request is made.
func (c *Comments) Get(id int64) Comment {
	return &rtComment{issue: c.issue, id: id}
}

// Listing returns the recipe for GET /repos/{owner}/{repo}/issues/{number}/comments.
func (c *Comments) Listing(params url.Values) pagination.Listing[Comment] {
	repo := c.issue.Repo()
	path := fmt.Sprintf("%s/issues/%d/comments", repo.coords.path(), c.issue.Number())
	return pagination.NewListing(repo.github.doer, repo.github.listing(path, params), c.mapper())
}

// Iterate lists comments. Each handle reads its JSON with its own request.
func (c *Comments) Iterate(params url.Values) *pagination.Sequence[Comment] {
	return c.Listing(params).Iterate()
}

// Bulk lists comments whose JSON is answered from the listing pages.
func (c *Comments) Bulk(params url.Values) *bulk.Sequence[Comment] {
	return bulk.Listing(c.issue.Repo().github.doer, c.Listing(params).Start(), c.mapper(), materializeComment)
}

func (c *Comments) mapper() pagination.Mapper[Comment] {
	return func(element json.RawMessage) (Comment, error) {
		var v struct {
			ID int64 `json:"id"`
		}
		if err := json.Unmarshal(element, &v); err != nil {
			return nil, err
		}
		if v.ID <= 0 {
			return nil, fmt.Errorf("comment element without id")
		}
		return c.Get(v.ID), nil
	}
}

// SmartComment reads comment fields through the comment's JSON.
type SmartComment struct {
	Comment
}

// NewSmartComment wraps a comment.
func NewSmartComment(comment Comment) *SmartComment {
	return &SmartComment{Comment: comment}
}

type commentDocument struct {
	Body      string    `json:"body"`
	User      user      `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *SmartComment) document(ctx context.Context) (*commentDocument, error) {
	data, err := s.JSON(ctx)
	if err != nil {
		return nil, err
	}
	var doc commentDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode comment %d: %w", s.ID(), err)
	}
	return &doc, nil
}

// Body returns the comment text.
func (s *SmartComment) Body(ctx context.Context) (string, error) {
	doc, err := s.document(ctx)
	if err != nil {
		return "", err
	}
	return doc.Body, nil
}

// Author returns the login of the comment author.
func (s *SmartComment) Author(ctx context.Context) (string, error) {
	doc, err := s.document(ctx)
	if err != nil {
		return "", err
	}
	return doc.User.Login, nil
}

// CreatedAt returns when the comment was posted.
func (s *SmartComment) CreatedAt(ctx context.Context) (time.Time, error) {
	doc, err := s.document(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return doc.CreatedAt, nil
}
