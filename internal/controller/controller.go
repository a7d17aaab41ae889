// Package controller reconciles live fetch results, connectivity status
// and locally stored favourites into the single article list the UI
// displays. It is the only component that triggers fetches or bulk
// favourite mutations.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/marcoalonso/nytpopular/internal/api"
	"github.com/marcoalonso/nytpopular/internal/store"
	"github.com/marcoalonso/nytpopular/pkg/models"
)

// Fetcher retrieves the most-popular ranking for a selection. The
// production implementation is api.Client; tests use an in-memory one.
type Fetcher interface {
	FetchArticles(ctx context.Context, category models.Category, period models.Period) ([]models.Article, error)
}

// FavouriteStore is the persistence surface the controller mediates.
type FavouriteStore interface {
	Insert(fav models.Favourite) error
	Delete(id int64) error
	DeleteAll() error
	List() ([]models.Favourite, error)
	Exists(id int64) (bool, error)
}

// Connectivity exposes the current reachability flag and a change feed.
type Connectivity interface {
	IsConnected() bool
	Subscribe() (<-chan bool, func())
}

// Snapshot is an immutable copy of the published display state.
type Snapshot struct {
	Articles     []models.Article
	ErrorMessage string
	Category     models.Category
	Period       models.Period
	Connected    bool
	Offline      bool
	Loading      bool
}

// Controller owns the displayed article list. All state lives behind
// one mutex; subscribers receive snapshot copies, never shared slices.
type Controller struct {
	fetcher Fetcher
	store   FavouriteStore
	net     Connectivity
	logger  *slog.Logger

	mu       sync.Mutex
	articles []models.Article
	errMsg   string
	category models.Category
	period   models.Period
	offline  bool
	loading  bool
	seq      uint64
	subs     map[int]chan Snapshot
	nextSub  int
}

func New(fetcher Fetcher, favStore FavouriteStore, net Connectivity, logger *slog.Logger) *Controller {
	return &Controller{
		fetcher:  fetcher,
		store:    favStore,
		net:      net,
		logger:   logger,
		category: models.CategoryViewed,
		period:   models.PeriodWeek,
		subs:     make(map[int]chan Snapshot),
	}
}

// Subscribe registers for state changes. The returned func unsubscribes.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan Snapshot, 8)
	c.subs[id] = ch

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// Current returns the published state.
func (c *Controller) Current() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Run watches connectivity transitions until the context is cancelled.
// Losing connectivity switches the display to stored favourites,
// regardless of any fetch in flight; regaining it refetches the current
// selection. It blocks; callers start it in a goroutine.
func (c *Controller) Run(ctx context.Context) {
	changes, cancel := c.net.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case connected, ok := <-changes:
			if !ok {
				return
			}
			if connected {
				c.Refresh(ctx)
			} else {
				c.mu.Lock()
				c.seq++ // discard any in-flight fetch
				c.fallbackLocked()
				c.mu.Unlock()
			}
		}
	}
}

// Fetch loads the ranking for a new selection. The call returns
// immediately; the result is published to subscribers. Only the most
// recently issued fetch is applied, earlier in-flight results are
// discarded.
func (c *Controller) Fetch(ctx context.Context, category models.Category, period models.Period) {
	c.mu.Lock()
	c.category = category
	c.period = period
	c.seq++
	token := c.seq

	if !c.net.IsConnected() {
		c.fallbackLocked()
		c.mu.Unlock()
		return
	}

	c.loading = true
	c.publishLocked()
	c.mu.Unlock()

	go func() {
		articles, err := c.fetcher.FetchArticles(ctx, category, period)

		c.mu.Lock()
		defer c.mu.Unlock()
		if token != c.seq {
			// Superseded by a newer selection.
			return
		}
		c.loading = false
		c.offline = false
		if err != nil {
			// Prior list stays on screen; only the message changes.
			c.errMsg = api.Describe(err)
			c.logger.Error("fetch failed", "category", category, "period", int(period), "error", err)
		} else {
			c.articles = articles
			c.errMsg = ""
			c.logger.Info("fetched articles", "category", category, "period", int(period), "count", len(articles))
		}
		c.publishLocked()
	}()
}

// Refresh refetches the current selection.
func (c *Controller) Refresh(ctx context.Context) {
	c.mu.Lock()
	category, period := c.category, c.period
	c.mu.Unlock()
	c.Fetch(ctx, category, period)
}

// ToggleFavourite inserts the article as a favourite if absent, removes
// it otherwise. Reports whether the article is now a favourite.
func (c *Controller) ToggleFavourite(article models.Article) (bool, error) {
	exists, err := c.store.Exists(article.ID)
	if err != nil {
		return false, err
	}

	if exists {
		if err := c.store.Delete(article.ID); err != nil {
			return true, err
		}
		c.logger.Info("removed favourite", "id", article.ID)
		return false, nil
	}

	if err := c.store.Insert(models.ToFavourite(article)); err != nil {
		return false, err
	}
	c.logger.Info("saved favourite", "id", article.ID)
	return true, nil
}

// SaveAllCurrent stores every displayed article not already present and
// returns the number inserted. Zero means everything was already saved.
func (c *Controller) SaveAllCurrent() (int, error) {
	c.mu.Lock()
	articles := make([]models.Article, len(c.articles))
	copy(articles, c.articles)
	c.mu.Unlock()

	saved := 0
	for _, article := range articles {
		exists, err := c.store.Exists(article.ID)
		if err != nil {
			return saved, err
		}
		if exists {
			continue
		}
		if err := c.store.Insert(models.ToFavourite(article)); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				// Should be unreachable after the Exists filter.
				c.logger.Error("duplicate favourite after existence check", "id", article.ID)
				continue
			}
			return saved, err
		}
		saved++
	}

	c.logger.Info("bulk save", "displayed", len(articles), "saved", saved)
	return saved, nil
}

// IsFavourite reports stored membership for an article id.
func (c *Controller) IsFavourite(id int64) (bool, error) {
	return c.store.Exists(id)
}

// Favourites returns the stored favourites in store order.
func (c *Controller) Favourites() ([]models.Favourite, error) {
	return c.store.List()
}

// RemoveFavourite deletes a single stored favourite.
func (c *Controller) RemoveFavourite(id int64) error {
	if err := c.store.Delete(id); err != nil {
		return err
	}
	c.logger.Info("removed favourite", "id", id)
	return nil
}

// ClearFavourites deletes every stored favourite.
func (c *Controller) ClearFavourites() error {
	if err := c.store.DeleteAll(); err != nil {
		return err
	}
	c.logger.Info("cleared favourites")
	return nil
}

// fallbackLocked publishes the stored favourites as the displayed list.
// Absence of connectivity is not an error, so no message is set; an
// empty store yields an empty list.
func (c *Controller) fallbackLocked() {
	favs, err := c.store.List()
	if err != nil {
		c.logger.Error("loading favourites for offline view", "error", err)
		favs = nil
	}
	c.articles = models.ToArticles(favs)
	c.errMsg = ""
	c.offline = true
	c.loading = false
	c.publishLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	articles := make([]models.Article, len(c.articles))
	copy(articles, c.articles)
	return Snapshot{
		Articles:     articles,
		ErrorMessage: c.errMsg,
		Category:     c.category,
		Period:       c.period,
		Connected:    c.net.IsConnected(),
		Offline:      c.offline,
		Loading:      c.loading,
	}
}

func (c *Controller) publishLocked() {
	snap := c.snapshotLocked()
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
			// Slow subscriber; it will catch up on the next publish
			// or via Current.
		}
	}
}
