package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/formsync/internal/entities"
)

func (a *App) view(ctx context.Context, list string) (*entities.View, error) {
	v, err := entities.NewView(ctx, a.entities)
	if err != nil {
		return nil, err
	}
	if !v.ListExists(list) {
		return nil, fmt.Errorf("unknown entity list %q", list)
	}
	return v, nil
}

// Query prints the entities of list whose field equals value. Fields the
// view cannot look up directly are answered by scanning the whole list.
func (a *App) Query(ctx context.Context, list, field, value string) error {
	v, err := a.view(ctx, list)
	if err != nil {
		return err
	}

	res, err := v.QueryEq(ctx, list, field, value)
	if err != nil {
		return err
	}

	nodes := res.Nodes
	if !res.Applicable {
		a.logger.Debug(ctx, "field not indexed, scanning list", "list", list, "field", field)
		if nodes, err = scanEq(ctx, v, list, field, value); err != nil {
			return err
		}
	}

	for _, n := range nodes {
		a.printNode(n)
	}
	return nil
}

func scanEq(ctx context.Context, v *entities.View, list, field, value string) ([]entities.Node, error) {
	all, err := v.All(ctx, list, false)
	if err != nil {
		return nil, err
	}

	var result []entities.Node
	for _, n := range all {
		if fn, ok := n.(entities.FullNode); ok {
			if got, ok := fn.Value(field); ok && got == value {
				result = append(result, fn)
			}
		}
	}
	return result, nil
}

// Entities prints every entity of list; with partial only the first one
// carries values.
func (a *App) Entities(ctx context.Context, list string, partial bool) error {
	v, err := a.view(ctx, list)
	if err != nil {
		return err
	}

	nodes, err := v.All(ctx, list, partial)
	if err != nil {
		return err
	}

	for _, n := range nodes {
		a.printNode(n)
	}
	return nil
}

func (a *App) printNode(n entities.Node) {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d", n.Index())

	switch n := n.(type) {
	case entities.FullNode:
		for _, f := range n.Fields {
			fmt.Fprintf(&b, "\t%s=%s", f.Name, f.Value)
		}
	case entities.ShapeNode:
		for _, name := range n.Names {
			fmt.Fprintf(&b, "\t%s", name)
		}
	}

	fmt.Fprintln(a.out, b.String())
}
