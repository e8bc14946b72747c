// Package entities exposes entity lists to form logic and imports entity
// list files delivered as form media.
package entities

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/formsync/internal/models"
)

// Reader is the repository surface a View needs.
type Reader interface {
	Lists(ctx context.Context) ([]string, error)
	GetEntities(ctx context.Context, list string) ([]models.Entity, error)
	GetByID(ctx context.Context, list, id string) (*models.Entity, error)
	GetAllByProperty(ctx context.Context, list, name, value string) ([]models.Entity, error)
}

// QueryResult is the answer to QueryEq. When Applicable is false the field
// cannot be looked up this way and the caller has to scan All instead; this
// is different from an applicable query with no Nodes.
type QueryResult struct {
	Applicable bool
	Nodes      []Node
}

// NotApplicable is the result for fields the repository does not index.
func NotApplicable() QueryResult {
	return QueryResult{}
}

// View is a read-only window on entity lists.
//
// The set of list names is loaded once in NewView and never refreshed, so a
// list created afterwards is not reported by ListExists. Build a new View
// when lists may have been added. Entity reads always go to the repository.
type View struct {
	repo  Reader
	lists map[string]struct{}
}

func NewView(ctx context.Context, repo Reader) (*View, error) {
	names, err := repo.Lists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load entity lists: %w", err)
	}

	lists := make(map[string]struct{}, len(names))
	for _, n := range names {
		lists[n] = struct{}{}
	}

	return &View{repo: repo, lists: lists}, nil
}

func (v *View) ListExists(list string) bool {
	_, ok := v.lists[list]
	return ok
}

// All returns one node per entity of list, in list order. With partial set
// only the first node is a FullNode; the rest are ShapeNodes.
func (v *View) All(ctx context.Context, list string, partial bool) ([]Node, error) {
	items, err := v.repo.GetEntities(ctx, list)
	if err != nil {
		return nil, fmt.Errorf("failed to load entities of %s: %w", list, err)
	}

	nodes := make([]Node, len(items))
	for i, e := range items {
		if partial && i > 0 {
			nodes[i] = NewShapeNode(e)
		} else {
			nodes[i] = NewFullNode(e)
		}
	}

	return nodes, nil
}

// QueryEq returns the entities of list whose field equals value.
//
// The identity field is "name" (FieldName), which holds the entity id; a
// query on it is a point lookup. A field literally called "id" is an
// ordinary property. label and __version are not indexed and yield
// NotApplicable. Any other field is matched exactly against entity
// properties.
func (v *View) QueryEq(ctx context.Context, list, field, value string) (QueryResult, error) {
	switch field {
	case FieldName:
		e, err := v.repo.GetByID(ctx, list, value)
		if err != nil {
			return QueryResult{}, fmt.Errorf("failed to get entity %s from %s: %w", value, list, err)
		}
		if e == nil {
			return QueryResult{Applicable: true, Nodes: []Node{}}, nil
		}
		return QueryResult{Applicable: true, Nodes: []Node{NewFullNode(*e)}}, nil

	case FieldLabel, FieldVersion:
		return NotApplicable(), nil
	}

	items, err := v.repo.GetAllByProperty(ctx, list, field, value)
	if err != nil {
		return QueryResult{}, fmt.Errorf("failed to query %s by %s: %w", list, field, err)
	}

	nodes := make([]Node, len(items))
	for i, e := range items {
		nodes[i] = NewFullNode(e)
	}

	return QueryResult{Applicable: true, Nodes: nodes}, nil
}
