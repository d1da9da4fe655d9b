package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/jcabi/jcabi-github-sub002/pkg/bulk"
	"github.com/jcabi/jcabi-github-sub002/pkg/pagination"
)

// Label is a handle on one repository label.
type Label interface {
	bulk.Readable

	Repo() *Repo
	Name() string
}

// rtLabel reads its JSON with GET /repos/{owner}/{repo}/labels/{name}.
type rtLabel struct {
	repo *Repo
	name string
}

func (l *rtLabel) Repo() *Repo {
	return l.repo
}

func (l *rtLabel) Name() string {
	return l.name
}

func (l *rtLabel) JSON(ctx context.Context) (json.RawMessage, error) {
	return l.repo.github.get(ctx, l.repo.coords.path()+"/labels/"+url.PathEscape(l.name))
}

type materializedLabel struct {
	Label
	captured bulk.Captured
}

func (l *materializedLabel) JSON(ctx context.Context) (json.RawMessage, error) {
	return l.captured.JSON(ctx)
}

func materializeLabel(origin Label, captured bulk.Captured) Label {
	return &materializedLabel{Label: origin, captured: captured}
}

// Labels is the label collection of a repository.
type Labels struct {
	repo *Repo
}

// Get returns the handle of one label. No request is made.
func (l *Labels) Get(name string) Label {
	return &rtLabel{repo: l.repo, name: name}
}

// Listing returns the recipe for GET /repos/{owner}/{repo}/labels.
func (l *Labels) Listing(params url.Values) pagination.Listing[Label] {
	return pagination.NewListing(
		l.repo.github.doer,
		l.repo.github.listing(l.repo.coords.path()+"/labels", params),
		l.mapper(),
	)
}

// Iterate lists labels. Each handle reads its JSON with its own request.
func (l *Labels) Iterate(params url.Values) *pagination.Sequence[Label] {
	return l.Listing(params).Iterate()
}

// Bulk lists labels whose JSON is answered from the listing pages.
func (l *Labels) Bulk(params url.Values) *bulk.Sequence[Label] {
	return bulk.Listing(l.repo.github.doer, l.Listing(params).Start(), l.mapper(), materializeLabel)
}

func (l *Labels) mapper() pagination.Mapper[Label] {
	return func(element json.RawMessage) (Label, error) {
		var v struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(element, &v); err != nil {
			return nil, err
		}
		if v.Name == "" {
			return nil, fmt.Errorf("label element without name")
		}
		return l.Get(v.Name), nil
	}
}

// SmartLabel reads label fields through the label's JSON.
type SmartLabel struct {
	Label
}

// NewSmartLabel wraps a label.
func NewSmartLabel(label Label) *SmartLabel {
	return &SmartLabel{Label: label}
}

type labelDocument struct {
	Color       string `json:"color"`
	Description string `json:"description"`
}

func (s *SmartLabel) document(ctx context.Context) (*labelDocument, error) {
	data, err := s.JSON(ctx)
	if err != nil {
		return nil, err
	}
	var doc labelDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode label %q: %w", s.Name(), err)
	}
	return &doc, nil
}

// Color returns the label color as a hex string without "#".
func (s *SmartLabel) Color(ctx context.Context) (string, error) {
	doc, err := s.document(ctx)
	if err != nil {
		return "", err
	}
	return doc.Color, nil
}

// Description returns the label description.
func (s *SmartLabel) Description(ctx context.Context) (string, error) {
	doc, err := s.document(ctx)
	if err != nil {
		return "", err
	}
	return doc.Description, nil
}
