package store

import (
	"path/filepath"
	"testing"

	"github.com/marcoalonso/nytpopular/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "favourites.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func fav(id int64) models.Favourite {
	return models.Favourite{
		ID:            id,
		URL:           "https://example.com",
		Title:         "Test Article",
		Byline:        "By Tester",
		PublishedDate: "2024-11-28",
		Abstract:      "Abstract",
		ImageURL:      "https://example.com/image.jpg",
	}
}

func TestInsertAndList(t *testing.T) {
	s, _ := newStore(t)

	require.NoError(t, s.Insert(fav(1)))

	favs, err := s.List()
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, fav(1), favs[0])
}

func TestInsertDuplicate(t *testing.T) {
	s, _ := newStore(t)

	require.NoError(t, s.Insert(fav(1)))
	assert.ErrorIs(t, s.Insert(fav(1)), ErrDuplicate)
}

func TestInsertWithoutImage(t *testing.T) {
	s, _ := newStore(t)

	f := fav(1)
	f.ImageURL = ""
	require.NoError(t, s.Insert(f))

	favs, err := s.List()
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Empty(t, favs[0].ImageURL)
}

func TestListInsertionOrder(t *testing.T) {
	s, _ := newStore(t)

	for _, id := range []int64{5, 2, 9} {
		require.NoError(t, s.Insert(fav(id)))
	}

	favs, err := s.List()
	require.NoError(t, err)
	require.Len(t, favs, 3)
	assert.Equal(t, int64(5), favs[0].ID)
	assert.Equal(t, int64(2), favs[1].ID)
	assert.Equal(t, int64(9), favs[2].ID)
}

func TestExists(t *testing.T) {
	s, _ := newStore(t)

	exists, err := s.Exists(1)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.Insert(fav(1)))

	exists, err = s.Exists(1)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDelete(t *testing.T) {
	s, _ := newStore(t)

	require.NoError(t, s.Insert(fav(1)))
	require.NoError(t, s.Delete(1))

	exists, err := s.Exists(1)
	require.NoError(t, err)
	assert.False(t, exists)

	// Deleting an absent id is a no-op.
	assert.NoError(t, s.Delete(1))
}

func TestDeleteAll(t *testing.T) {
	s, _ := newStore(t)

	require.NoError(t, s.Insert(fav(1)))
	require.NoError(t, s.Insert(fav(2)))
	require.NoError(t, s.DeleteAll())

	favs, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, favs)
}

func TestSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "favourites.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Insert(fav(1)))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	favs, err := s.List()
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, int64(1), favs[0].ID)
}
