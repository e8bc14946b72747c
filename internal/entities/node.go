package entities

import (
	"strconv"

	"github.com/dmitrijs2005/formsync/internal/models"
)

// Child names of an entity node, in the order they appear.
const (
	FieldName         = "name"
	FieldLabel        = "label"
	FieldVersion      = "__version"
	FieldTrunkVersion = "__trunkVersion"
	FieldBranchID     = "__branchId"
)

// Field is one named child value of a full node.
type Field struct {
	Name  string
	Value string
}

// Node is one entity as seen by a form: either FullNode or ShapeNode.
type Node interface {
	// Index is the entity's 1-based position in its list.
	Index() int
	// ChildNames lists the node's child names in order.
	ChildNames() []string

	node()
}

// FullNode carries every child with its value.
type FullNode struct {
	Idx    int
	Fields []Field
}

func (n FullNode) Index() int { return n.Idx }

func (n FullNode) ChildNames() []string {
	names := make([]string, len(n.Fields))
	for i, f := range n.Fields {
		names[i] = f.Name
	}
	return names
}

// Value returns the named child's value.
func (n FullNode) Value(name string) (string, bool) {
	for _, f := range n.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

func (FullNode) node() {}

// ShapeNode is a placeholder that only knows its position and child names.
// The values have to be fetched separately.
type ShapeNode struct {
	Idx   int
	Names []string
}

func (n ShapeNode) Index() int { return n.Idx }

func (n ShapeNode) ChildNames() []string { return n.Names }

func (ShapeNode) node() {}

// NewFullNode maps e to its node form.
func NewFullNode(e models.Entity) FullNode {
	fields := make([]Field, 0, 5+len(e.Properties))
	fields = append(fields,
		Field{FieldName, e.ID},
		Field{FieldLabel, e.Label},
		Field{FieldVersion, strconv.FormatInt(e.Version, 10)},
	)
	if e.TrunkVersion != nil {
		fields = append(fields, Field{FieldTrunkVersion, strconv.FormatInt(*e.TrunkVersion, 10)})
	}
	fields = append(fields, Field{FieldBranchID, e.BranchID})

	for _, p := range e.Properties {
		fields = append(fields, Field{p.Name, p.Value})
	}

	return FullNode{Idx: e.Index, Fields: fields}
}

// NewShapeNode maps e to a placeholder with e's child names.
func NewShapeNode(e models.Entity) ShapeNode {
	return ShapeNode{Idx: e.Index, Names: NewFullNode(e).ChildNames()}
}
