package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Coordinates identify a repository as owner/name.
type Coordinates struct {
	Owner string
	Name  string
}

// ParseCoordinates parses "owner/name".
func ParseCoordinates(s string) (Coordinates, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Coordinates{}, fmt.Errorf("invalid repository coordinates %q, want owner/name", s)
	}
	return Coordinates{Owner: owner, Name: name}, nil
}

// String returns "owner/name".
func (c Coordinates) String() string {
	return c.Owner + "/" + c.Name
}

func (c Coordinates) path() string {
	return "/repos/" + url.PathEscape(c.Owner) + "/" + url.PathEscape(c.Name)
}

// Repo is a repository handle.
type Repo struct {
	github *GitHub
	coords Coordinates
}

// Coordinates returns the repository coordinates.
func (r *Repo) Coordinates() Coordinates {
	return r.coords
}

// JSON reads the repository document.
func (r *Repo) JSON(ctx context.Context) (json.RawMessage, error) {
	return r.github.get(ctx, r.coords.path())
}

// Issues returns the issues of the repository.
func (r *Repo) Issues() *Issues {
	return &Issues{repo: r}
}

// Labels returns the labels of the repository.
func (r *Repo) Labels() *Labels {
	return &Labels{repo: r}
}
