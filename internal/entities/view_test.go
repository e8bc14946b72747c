package entities

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/formsync/internal/db"
	"github.com/dmitrijs2005/formsync/internal/models"
	entityrepo "github.com/dmitrijs2005/formsync/internal/repositories/entities"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) *entityrepo.SQLiteRepository {
	t.Helper()
	d, err := db.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return entityrepo.NewSQLiteRepository(d)
}

func seedTrees(t *testing.T, repo *entityrepo.SQLiteRepository) {
	t.Helper()
	trunk := int64(1)
	require.NoError(t, repo.Save(context.Background(), "trees",
		models.Entity{ID: "t1", Label: "Oak", Version: 2, BranchID: "b1", TrunkVersion: &trunk,
			Properties: []models.Property{{Name: "species", Value: "oak"}, {Name: "height", Value: "12"}}},
		models.Entity{ID: "t2", Label: "Pine", Version: 1, BranchID: "b2",
			Properties: []models.Property{{Name: "species", Value: "pine"}, {Name: "height", Value: "20"}}},
		models.Entity{ID: "t3", Label: "Other oak", Version: 1, BranchID: "b3",
			Properties: []models.Property{{Name: "species", Value: "oak"}}},
	))
}

func TestNewView_SnapshotsListNames(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	seedTrees(t, repo)

	v, err := NewView(ctx, repo)
	require.NoError(t, err)
	assert.True(t, v.ListExists("trees"))
	assert.False(t, v.ListExists("people"))

	require.NoError(t, repo.CreateList(ctx, "people"))
	assert.False(t, v.ListExists("people"), "lists created later are not observed")

	v, err = NewView(ctx, repo)
	require.NoError(t, err)
	assert.True(t, v.ListExists("people"))
}

func TestAll_Full(t *testing.T) {
	repo := newRepo(t)
	seedTrees(t, repo)

	v, err := NewView(context.Background(), repo)
	require.NoError(t, err)

	nodes, err := v.All(context.Background(), "trees", false)
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	want := FullNode{Idx: 1, Fields: []Field{
		{"name", "t1"}, {"label", "Oak"}, {"__version", "2"}, {"__trunkVersion", "1"},
		{"__branchId", "b1"}, {Name: "species", Value: "oak"}, {Name: "height", Value: "12"},
	}}
	assert.Empty(t, cmp.Diff(want, nodes[0]))

	second, ok := nodes[1].(FullNode)
	require.True(t, ok)
	assert.Equal(t, 2, second.Index())
	assert.Equal(t, []string{"name", "label", "__version", "__branchId", "species", "height"}, second.ChildNames(),
		"__trunkVersion only appears when set")
	val, ok := second.Value("height")
	assert.True(t, ok)
	assert.Equal(t, "20", val)
}

func TestAll_PartialKeepsShapeOfFirstNode(t *testing.T) {
	repo := newRepo(t)
	seedTrees(t, repo)

	v, err := NewView(context.Background(), repo)
	require.NoError(t, err)

	full, err := v.All(context.Background(), "trees", false)
	require.NoError(t, err)
	partial, err := v.All(context.Background(), "trees", true)
	require.NoError(t, err)
	require.Len(t, partial, len(full))

	first, ok := partial[0].(FullNode)
	require.True(t, ok, "element 0 carries values")
	assert.Empty(t, cmp.Diff(full[0], first))
	assert.Equal(t, full[0].ChildNames(), partial[0].ChildNames())

	for i := 1; i < len(partial); i++ {
		shape, ok := partial[i].(ShapeNode)
		require.True(t, ok, "element %d is a placeholder", i)
		assert.Equal(t, i+1, shape.Index())
		assert.Equal(t, full[i].ChildNames(), shape.ChildNames())
	}
}

func TestAll_EmptyOrUnknownList(t *testing.T) {
	repo := newRepo(t)
	require.NoError(t, repo.CreateList(context.Background(), "empty"))

	v, err := NewView(context.Background(), repo)
	require.NoError(t, err)

	for _, list := range []string{"empty", "unknown"} {
		nodes, err := v.All(context.Background(), list, true)
		require.NoError(t, err)
		assert.Empty(t, nodes)
	}
}

func TestQueryEq_Routing(t *testing.T) {
	repo := newRepo(t)
	seedTrees(t, repo)
	ctx := context.Background()

	v, err := NewView(ctx, repo)
	require.NoError(t, err)

	t.Run("identity field is a point lookup", func(t *testing.T) {
		res, err := v.QueryEq(ctx, "trees", "name", "t2")
		require.NoError(t, err)
		require.True(t, res.Applicable)
		require.Len(t, res.Nodes, 1)

		byID, err := repo.GetByID(ctx, "trees", "t2")
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(NewFullNode(*byID), res.Nodes[0]))
	})

	t.Run("identity miss is empty, not inapplicable", func(t *testing.T) {
		res, err := v.QueryEq(ctx, "trees", "name", "nope")
		require.NoError(t, err)
		assert.True(t, res.Applicable)
		assert.NotNil(t, res.Nodes)
		assert.Empty(t, res.Nodes)
	})

	t.Run("id is an ordinary property", func(t *testing.T) {
		res, err := v.QueryEq(ctx, "trees", "id", "t2")
		require.NoError(t, err)
		assert.True(t, res.Applicable)
		assert.Empty(t, res.Nodes, "the entity id is only reachable through name")
	})

	t.Run("reserved fields are not applicable", func(t *testing.T) {
		for _, field := range []string{"label", "__version"} {
			res, err := v.QueryEq(ctx, "trees", field, "Oak")
			require.NoError(t, err)
			assert.False(t, res.Applicable, field)
			assert.Nil(t, res.Nodes)
		}
	})

	t.Run("property match in list order", func(t *testing.T) {
		res, err := v.QueryEq(ctx, "trees", "species", "oak")
		require.NoError(t, err)
		require.True(t, res.Applicable)
		require.Len(t, res.Nodes, 2)
		assert.Equal(t, 1, res.Nodes[0].Index())
		assert.Equal(t, 3, res.Nodes[1].Index())
		for _, n := range res.Nodes {
			fn := n.(FullNode)
			species, _ := fn.Value("species")
			assert.Equal(t, "oak", species)
		}
	})

	t.Run("property is case sensitive", func(t *testing.T) {
		res, err := v.QueryEq(ctx, "trees", "species", "Oak")
		require.NoError(t, err)
		assert.True(t, res.Applicable)
		assert.Empty(t, res.Nodes)
	})
}

type stubReader struct {
	lists []string
	err   error
	calls []string
}

func (s *stubReader) Lists(context.Context) ([]string, error) { return s.lists, s.err }

func (s *stubReader) GetEntities(_ context.Context, list string) ([]models.Entity, error) {
	s.calls = append(s.calls, "GetEntities")
	return nil, s.err
}

func (s *stubReader) GetByID(_ context.Context, list, id string) (*models.Entity, error) {
	s.calls = append(s.calls, "GetByID")
	return nil, s.err
}

func (s *stubReader) GetAllByProperty(_ context.Context, list, name, value string) ([]models.Entity, error) {
	s.calls = append(s.calls, "GetAllByProperty")
	return nil, s.err
}

func TestView_Errors(t *testing.T) {
	_, err := NewView(context.Background(), &stubReader{err: errors.New("db closed")})
	require.ErrorContains(t, err, "db closed")

	stub := &stubReader{lists: []string{"l"}}
	v, err := NewView(context.Background(), stub)
	require.NoError(t, err)
	stub.err = errors.New("db closed")

	_, err = v.All(context.Background(), "l", false)
	require.Error(t, err)
	_, err = v.QueryEq(context.Background(), "l", "name", "x")
	require.Error(t, err)
	_, err = v.QueryEq(context.Background(), "l", "color", "x")
	require.Error(t, err)

	_, err = v.QueryEq(context.Background(), "l", "label", "x")
	require.NoError(t, err, "reserved fields never reach the repository")
	assert.Equal(t, []string{"GetEntities", "GetByID", "GetAllByProperty"}, stub.calls)
}
