package controller

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/marcoalonso/nytpopular/internal/api"
	"github.com/marcoalonso/nytpopular/internal/store"
	"github.com/marcoalonso/nytpopular/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	mu sync.Mutex
	fn func(category models.Category, period models.Period) ([]models.Article, error)
}

func (f *fakeFetcher) FetchArticles(ctx context.Context, category models.Category, period models.Period) ([]models.Article, error) {
	f.mu.Lock()
	fn := f.fn
	f.mu.Unlock()
	return fn(category, period)
}

func (f *fakeFetcher) set(fn func(models.Category, models.Period) ([]models.Article, error)) {
	f.mu.Lock()
	f.fn = fn
	f.mu.Unlock()
}

func returning(articles []models.Article) func(models.Category, models.Period) ([]models.Article, error) {
	return func(models.Category, models.Period) ([]models.Article, error) {
		return articles, nil
	}
}

func failing(err error) func(models.Category, models.Period) ([]models.Article, error) {
	return func(models.Category, models.Period) ([]models.Article, error) {
		return nil, err
	}
}

type memStore struct {
	mu   sync.Mutex
	favs []models.Favourite
}

func (s *memStore) Insert(fav models.Favourite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.favs {
		if f.ID == fav.ID {
			return store.ErrDuplicate
		}
	}
	s.favs = append(s.favs, fav)
	return nil
}

func (s *memStore) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, f := range s.favs {
		if f.ID == id {
			s.favs = append(s.favs[:i], s.favs[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *memStore) DeleteAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.favs = nil
	return nil
}

func (s *memStore) List() ([]models.Favourite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Favourite, len(s.favs))
	copy(out, s.favs)
	return out, nil
}

func (s *memStore) Exists(id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.favs {
		if f.ID == id {
			return true, nil
		}
	}
	return false, nil
}

type fakeNet struct {
	mu        sync.Mutex
	connected bool
	ch        chan bool
}

func newFakeNet(connected bool) *fakeNet {
	return &fakeNet{connected: connected, ch: make(chan bool, 4)}
}

func (n *fakeNet) IsConnected() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.connected
}

func (n *fakeNet) Subscribe() (<-chan bool, func()) {
	return n.ch, func() {}
}

func (n *fakeNet) set(connected bool) {
	n.mu.Lock()
	n.connected = connected
	n.mu.Unlock()
	n.ch <- connected
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func articles(ids ...int64) []models.Article {
	out := make([]models.Article, len(ids))
	for i, id := range ids {
		out[i] = models.Article{
			ID:            id,
			URL:           "https://example.com",
			Title:         "Article",
			Byline:        "By Tester",
			PublishedDate: "2024-11-28",
			Abstract:      "Abstract",
		}
	}
	return out
}

// waitLoaded drains snapshots until one is past the loading phase.
func waitLoaded(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-ch:
			if !snap.Loading {
				return snap
			}
		case <-deadline:
			t.Fatal("timed out waiting for snapshot")
		}
	}
}

func TestFetchSuccessPublishesInOrder(t *testing.T) {
	fetcher := &fakeFetcher{fn: returning(articles(1, 2, 3))}
	ctrl := New(fetcher, &memStore{}, newFakeNet(true), testLogger())

	ch, cancel := ctrl.Subscribe()
	defer cancel()

	ctrl.Fetch(context.Background(), models.CategoryViewed, models.PeriodWeek)
	snap := waitLoaded(t, ch)

	require.Len(t, snap.Articles, 3)
	assert.Equal(t, int64(1), snap.Articles[0].ID)
	assert.Equal(t, int64(2), snap.Articles[1].ID)
	assert.Equal(t, int64(3), snap.Articles[2].ID)
	assert.Empty(t, snap.ErrorMessage)
	assert.False(t, snap.Offline)
}

func TestFetchSuccessClearsPriorError(t *testing.T) {
	fetcher := &fakeFetcher{fn: failing(&api.ServerError{Code: 500})}
	ctrl := New(fetcher, &memStore{}, newFakeNet(true), testLogger())

	ch, cancel := ctrl.Subscribe()
	defer cancel()

	ctrl.Fetch(context.Background(), models.CategoryViewed, models.PeriodWeek)
	snap := waitLoaded(t, ch)
	require.NotEmpty(t, snap.ErrorMessage)

	fetcher.set(returning(articles(1)))
	ctrl.Refresh(context.Background())
	snap = waitLoaded(t, ch)

	assert.Empty(t, snap.ErrorMessage)
	assert.Len(t, snap.Articles, 1)
}

func TestFetchFailureKeepsPreviousList(t *testing.T) {
	fetcher := &fakeFetcher{fn: returning(articles(1, 2))}
	ctrl := New(fetcher, &memStore{}, newFakeNet(true), testLogger())

	ch, cancel := ctrl.Subscribe()
	defer cancel()

	ctrl.Fetch(context.Background(), models.CategoryViewed, models.PeriodWeek)
	waitLoaded(t, ch)

	fetcher.set(failing(&api.TransportError{}))
	ctrl.Fetch(context.Background(), models.CategoryEmailed, models.PeriodDay)
	snap := waitLoaded(t, ch)

	// Prior list is not cleared; the message slot carries the failure.
	require.Len(t, snap.Articles, 2)
	assert.Equal(t, "Failed to fetch data from the server. Please check your connection.", snap.ErrorMessage)
}

func TestFetchErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"server", &api.ServerError{Code: 503}, "Server responded with an error: 503."},
		{"decoding", &api.DecodingError{}, "Failed to process the data received."},
		{"transport", &api.TransportError{}, "Failed to fetch data from the server. Please check your connection."},
		{"invalid request", api.ErrInvalidRequest, "The request is invalid. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &fakeFetcher{fn: failing(tt.err)}
			ctrl := New(fetcher, &memStore{}, newFakeNet(true), testLogger())

			ch, cancel := ctrl.Subscribe()
			defer cancel()

			ctrl.Fetch(context.Background(), models.CategoryViewed, models.PeriodWeek)
			snap := waitLoaded(t, ch)

			assert.Equal(t, tt.want, snap.ErrorMessage)
		})
	}
}

func TestOfflineFallbackShowsFavourites(t *testing.T) {
	favStore := &memStore{}
	require.NoError(t, favStore.Insert(models.Favourite{ID: 7, Title: "Stored", ImageURL: "https://img"}))

	fetcher := &fakeFetcher{fn: returning(articles(1))}
	ctrl := New(fetcher, favStore, newFakeNet(false), testLogger())

	ctrl.Fetch(context.Background(), models.CategoryViewed, models.PeriodWeek)
	snap := ctrl.Current()

	require.Len(t, snap.Articles, 1)
	assert.Equal(t, int64(7), snap.Articles[0].ID)
	assert.Equal(t, "Stored", snap.Articles[0].Title)
	require.Len(t, snap.Articles[0].Media, 1)
	assert.True(t, snap.Offline)
	// Absence of connectivity is not an error.
	assert.Empty(t, snap.ErrorMessage)
}

func TestOfflineFallbackEmptyStore(t *testing.T) {
	fetcher := &fakeFetcher{fn: returning(articles(1))}
	ctrl := New(fetcher, &memStore{}, newFakeNet(false), testLogger())

	ctrl.Fetch(context.Background(), models.CategoryViewed, models.PeriodWeek)
	snap := ctrl.Current()

	assert.Empty(t, snap.Articles)
	assert.Empty(t, snap.ErrorMessage)
	assert.True(t, snap.Offline)
}

func TestDisconnectRepublishesFavourites(t *testing.T) {
	favStore := &memStore{}
	require.NoError(t, favStore.Insert(models.Favourite{ID: 7, Title: "Stored"}))

	net := newFakeNet(true)
	fetcher := &fakeFetcher{fn: returning(articles(1, 2))}
	ctrl := New(fetcher, favStore, net, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ctrl.Run(ctx)

	ch, unsub := ctrl.Subscribe()
	defer unsub()

	ctrl.Fetch(ctx, models.CategoryViewed, models.PeriodWeek)
	waitLoaded(t, ch)

	net.set(false)
	snap := waitLoaded(t, ch)

	require.Len(t, snap.Articles, 1)
	assert.Equal(t, int64(7), snap.Articles[0].ID)
	assert.True(t, snap.Offline)
}

func TestReconnectRefetchesSelection(t *testing.T) {
	net := newFakeNet(false)
	fetcher := &fakeFetcher{fn: returning(articles(1, 2))}
	ctrl := New(fetcher, &memStore{}, net, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ctrl.Run(ctx)

	ctrl.Fetch(ctx, models.CategoryEmailed, models.PeriodMonth)
	assert.True(t, ctrl.Current().Offline)

	ch, unsub := ctrl.Subscribe()
	defer unsub()

	net.set(true)
	snap := waitLoaded(t, ch)

	assert.Len(t, snap.Articles, 2)
	assert.False(t, snap.Offline)
	assert.Equal(t, models.CategoryEmailed, snap.Category)
	assert.Equal(t, models.PeriodMonth, snap.Period)
}

func TestStaleFetchDiscarded(t *testing.T) {
	gate := make(chan struct{})
	fetcher := &fakeFetcher{}
	fetcher.set(func(category models.Category, period models.Period) ([]models.Article, error) {
		if category == models.CategoryViewed {
			<-gate // first request held in flight
			return articles(99), nil
		}
		return articles(1), nil
	})

	ctrl := New(fetcher, &memStore{}, newFakeNet(true), testLogger())

	ch, cancel := ctrl.Subscribe()
	defer cancel()

	ctx := context.Background()
	ctrl.Fetch(ctx, models.CategoryViewed, models.PeriodWeek)
	ctrl.Fetch(ctx, models.CategoryEmailed, models.PeriodWeek)

	snap := waitLoaded(t, ch)
	require.Len(t, snap.Articles, 1)
	assert.Equal(t, int64(1), snap.Articles[0].ID)

	// Release the superseded fetch; its result must be ignored.
	close(gate)
	time.Sleep(50 * time.Millisecond)

	snap = ctrl.Current()
	require.Len(t, snap.Articles, 1)
	assert.Equal(t, int64(1), snap.Articles[0].ID)
}

func TestToggleFavourite(t *testing.T) {
	favStore := &memStore{}
	ctrl := New(&fakeFetcher{fn: returning(nil)}, favStore, newFakeNet(true), testLogger())

	article := articles(42)[0]
	article.Media = []models.Media{{
		Type:    "image",
		Subtype: "photo",
		MediaMetadata: []models.MediaMetadata{
			{URL: "a"},
			{URL: "b"},
		},
	}}

	added, err := ctrl.ToggleFavourite(article)
	require.NoError(t, err)
	assert.True(t, added)

	favs, err := favStore.List()
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, int64(42), favs[0].ID)
	assert.Equal(t, article.Title, favs[0].Title)
	assert.Equal(t, article.URL, favs[0].URL)
	// Highest-resolution rendition is kept.
	assert.Equal(t, "b", favs[0].ImageURL)

	added, err = ctrl.ToggleFavourite(article)
	require.NoError(t, err)
	assert.False(t, added)

	favs, err = favStore.List()
	require.NoError(t, err)
	assert.Empty(t, favs)
}

func TestSaveAllCurrent(t *testing.T) {
	favStore := &memStore{}
	require.NoError(t, favStore.Insert(models.Favourite{ID: 2}))

	fetcher := &fakeFetcher{fn: returning(articles(1, 2, 3))}
	ctrl := New(fetcher, favStore, newFakeNet(true), testLogger())

	ch, cancel := ctrl.Subscribe()
	defer cancel()
	ctrl.Fetch(context.Background(), models.CategoryViewed, models.PeriodWeek)
	waitLoaded(t, ch)

	// One of three ids is already stored.
	saved, err := ctrl.SaveAllCurrent()
	require.NoError(t, err)
	assert.Equal(t, 2, saved)

	favs, err := favStore.List()
	require.NoError(t, err)
	assert.Len(t, favs, 3)

	// A second pass has nothing left to insert; zero is not an error.
	saved, err = ctrl.SaveAllCurrent()
	require.NoError(t, err)
	assert.Equal(t, 0, saved)
}

func TestRemoveAndClearFavourites(t *testing.T) {
	favStore := &memStore{}
	require.NoError(t, favStore.Insert(models.Favourite{ID: 1}))
	require.NoError(t, favStore.Insert(models.Favourite{ID: 2}))

	ctrl := New(&fakeFetcher{fn: returning(nil)}, favStore, newFakeNet(true), testLogger())

	require.NoError(t, ctrl.RemoveFavourite(1))
	favs, err := ctrl.Favourites()
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, int64(2), favs[0].ID)

	require.NoError(t, ctrl.ClearFavourites())
	favs, err = ctrl.Favourites()
	require.NoError(t, err)
	assert.Empty(t, favs)
}
