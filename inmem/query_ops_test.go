package inmem_test

import (
	"testing"

	"github.com/code19m/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/repokit/inmem"
	"github.com/rise-and-shine/repokit/pagination"
	"github.com/rise-and-shine/repokit/qbe"
	"github.com/rise-and-shine/repokit/sorter"
)

func seedUsers(t *testing.T) *inmem.Store[user, int64] {
	t.Helper()
	store := newUserStore(t, inmem.Config{})

	_, err := store.SaveAll(t.Context(), []*user{
		{Name: "carol", Age: 41, Active: true},
		{Name: "alice", Age: 29, Active: true},
		{Name: "bob", Age: 35},
		{Name: "dave", Age: 29},
	})
	require.NoError(t, err)
	return store
}

func names(users []user) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.Name
	}
	return out
}

func TestFindAllSorted(t *testing.T) {
	store := seedUsers(t)

	got, err := store.FindAllSorted(t.Context(), sorter.Make(
		sorter.Opt{F: "age", D: sorter.Asc},
		sorter.Opt{F: "name", D: sorter.Asc},
	))
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "dave", "bob", "carol"}, names(got))
}

func TestFindAllSortedBadField(t *testing.T) {
	store := seedUsers(t)

	_, err := store.FindAllSorted(t.Context(), sorter.Make(sorter.Opt{F: "salary", D: sorter.Asc}))
	require.Error(t, err)
	assert.Equal(t, sorter.CodeInvalidSortField, errx.AsErrorX(err).Code())
}

func TestFindPage(t *testing.T) {
	store := seedUsers(t)

	t.Run("first page", func(t *testing.T) {
		page, err := store.FindPage(t.Context(), pagination.Request{
			PageNumber: 1,
			PageSize:   3,
			Sort:       sorter.Make(sorter.Opt{F: "name", D: sorter.Asc}),
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"alice", "bob", "carol"}, names(page.Content))
		assert.EqualValues(t, 4, page.TotalCount)
		assert.Equal(t, 2, page.PageCount)
		assert.True(t, page.HasNext())
		assert.False(t, page.HasPrev())
	})

	t.Run("last page", func(t *testing.T) {
		page, err := store.FindPage(t.Context(), pagination.Request{
			PageNumber: 2,
			PageSize:   3,
			Sort:       sorter.Make(sorter.Opt{F: "name", D: sorter.Asc}),
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"dave"}, names(page.Content))
		assert.False(t, page.HasNext())
		assert.True(t, page.HasPrev())
	})

	t.Run("beyond range", func(t *testing.T) {
		page, err := store.FindPage(t.Context(), pagination.Request{PageNumber: 9, PageSize: 3})
		require.NoError(t, err)
		assert.Empty(t, page.Content)
		assert.EqualValues(t, 4, page.TotalCount)
	})

	t.Run("zero request normalizes", func(t *testing.T) {
		page, err := store.FindPage(t.Context(), pagination.Request{})
		require.NoError(t, err)
		assert.Equal(t, 1, page.PageNumber)
		assert.Len(t, page.Content, 4)
	})
}

func TestFindOneByExample(t *testing.T) {
	store := seedUsers(t)

	t.Run("single match", func(t *testing.T) {
		got, err := store.FindOneByExample(t.Context(), qbe.Of(&user{Name: "bob"}))
		require.NoError(t, err)
		assert.Equal(t, 35, got.Age)
	})

	t.Run("no match", func(t *testing.T) {
		_, err := store.FindOneByExample(t.Context(), qbe.Of(&user{Name: "zed"}))
		require.Error(t, err)
		assert.Equal(t, inmem.CodeObjectNotFound, errx.AsErrorX(err).Code())
	})

	t.Run("multiple matches", func(t *testing.T) {
		_, err := store.FindOneByExample(t.Context(), qbe.Of(&user{Age: 29}))
		require.Error(t, err)

		e := errx.AsErrorX(err)
		assert.Equal(t, inmem.CodeMultipleRowsFound, e.Code())
		assert.Equal(t, 2, e.Details()["matched"])
	})
}

func TestFindByExample(t *testing.T) {
	store := seedUsers(t)

	got, err := store.FindByExample(t.Context(),
		qbe.Of(&user{Age: 29}),
		sorter.Make(sorter.Opt{F: "name", D: sorter.Desc}),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"dave", "alice"}, names(got))
}

func TestCountAndExistsByExample(t *testing.T) {
	store := seedUsers(t)

	n, err := store.CountByExample(t.Context(), qbe.Of(&user{Active: true}))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	ok, err := store.ExistsByExample(t.Context(), qbe.Of(&user{Name: "carol"}))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.ExistsByExample(t.Context(), qbe.Of(&user{Name: "nope"}))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStreamAllSnapshot(t *testing.T) {
	store := seedUsers(t)

	stream, err := store.StreamAll(t.Context())
	require.NoError(t, err)
	defer stream.Close()

	// Writes after the stream is created are not visible to it.
	_, err = store.Save(t.Context(), &user{Name: "late"})
	require.NoError(t, err)

	collected, err := stream.Collect()
	require.NoError(t, err)
	assert.Len(t, collected, 4)
	assert.Equal(t, "carol", collected[0].Name, "insertion order")
}

func TestStreamByExample(t *testing.T) {
	store := seedUsers(t)

	stream, err := store.StreamByExample(t.Context(), qbe.Of(&user{Age: 29}))
	require.NoError(t, err)

	collected, err := stream.Collect()
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "dave"}, names(collected))
}
