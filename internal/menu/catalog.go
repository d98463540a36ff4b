// Package menu keeps the till's menu: a cached copy of the remote catalog,
// optimistic edits that roll back when the remote rejects them, and the
// operator's favorites.
package menu

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/appetiteclub/till/internal/clock"
	"github.com/appetiteclub/till/internal/ledger"
	"github.com/appetiteclub/till/internal/remote"
	"github.com/appetiteclub/till/internal/storage"
	"github.com/appetiteclub/till/pkg/platform"
)

// FavoritesCategory is the pseudo category listing favorite items.
const FavoritesCategory = "Favorites"

const DefaultCacheTTL = time.Hour

var (
	ErrItemNotFound        = errors.New("menu item not found")
	ErrInvalidItem         = errors.New("menu item needs a name, a category and a non-negative price")
	ErrInvalidCategory     = errors.New("category name must not be empty")
	ErrDuplicateCategory   = errors.New("category already exists")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrCategoryInUse       = errors.New("category still has items")
	ErrItemNotAcknowledged = errors.New("remote did not return the saved item")
)

// Remote is the part of the remote client the catalog uses.
type Remote interface {
	Configured() bool
	FetchMenu(ctx context.Context) (*remote.Menu, error)
	Mutate(ctx context.Context, action string, payload map[string]interface{}) (*remote.Reply, error)
}

// ActionLogger records operator-visible actions in the day's activity log.
type ActionLogger interface {
	LogAction(ctx context.Context, action string)
}

// Status describes the last load.
type Status struct {
	Source   string    `json:"source,omitempty"`
	LoadedAt time.Time `json:"loadedAt,omitempty"`
	Error    string    `json:"error,omitempty"`
}

type cacheEntry struct {
	Timestamp  time.Time         `json:"timestamp"`
	MenuItems  []ledger.MenuItem `json:"menuItems"`
	Categories []string          `json:"categories"`
}

type Catalog struct {
	mu         sync.RWMutex
	kv         storage.KV
	remote     Remote
	clock      clock.Clock
	ttl        time.Duration
	journal    ActionLogger
	logger     platform.Logger
	items      []ledger.MenuItem
	categories []string
	favorites  map[int]bool
	status     Status
	nextTempID int
}

func NewCatalog(kv storage.KV, r Remote, clk clock.Clock, ttl time.Duration, journal ActionLogger, logger platform.Logger) *Catalog {
	if logger == nil {
		logger = platform.NewNoopLogger()
	}
	if clk == nil {
		clk = clock.New(nil)
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Catalog{
		kv:         kv,
		remote:     r,
		clock:      clk,
		ttl:        ttl,
		journal:    journal,
		logger:     logger,
		items:      []ledger.MenuItem{},
		categories: []string{},
		favorites:  map[int]bool{},
		nextTempID: -1,
	}
}

// Load fills the catalog. A fresh cache is used unless force is set; a failed
// fetch keeps whatever copy is already available and records the error.
func (c *Catalog) Load(ctx context.Context, force bool) error {
	c.loadFavorites(ctx)

	cached, cacheErr := c.readCache(ctx)
	if !force && cacheErr == nil && c.clock.Now().Sub(cached.Timestamp) < c.ttl {
		c.replace(cached.MenuItems, cached.Categories, Status{Source: "cache", LoadedAt: cached.Timestamp})
		c.journalf(ctx, "Menu loaded from cache")
		return nil
	}

	menu, err := c.remote.FetchMenu(ctx)
	if err != nil {
		c.mu.Lock()
		if len(c.items) == 0 && cacheErr == nil {
			c.items = cached.MenuItems
			c.categories = cached.Categories
			c.status.Source = "stale-cache"
			c.status.LoadedAt = cached.Timestamp
		}
		c.status.Error = err.Error()
		c.mu.Unlock()
		c.logger.Error("cannot load menu", "error", err)
		c.journalf(ctx, "Menu load failed: %v", err)
		return fmt.Errorf("cannot load menu: %w", err)
	}

	now := c.clock.Now()
	c.replace(menu.Items, menu.Categories, Status{Source: "remote", LoadedAt: now})
	c.persistCache(ctx)
	c.journalf(ctx, "Menu loaded from remote, %d items", len(menu.Items))
	return nil
}

func (c *Catalog) replace(items []ledger.MenuItem, categories []string, st Status) {
	if items == nil {
		items = []ledger.MenuItem{}
	}
	if categories == nil {
		categories = []string{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = slices.Clone(items)
	c.categories = slices.Clone(categories)
	c.status = st
}

func (c *Catalog) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

func (c *Catalog) Items() []ledger.MenuItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

func (c *Catalog) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.categories)
}

func (c *Catalog) Item(id int) (ledger.MenuItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexLocked(id); i >= 0 {
		return c.items[i], nil
	}
	return ledger.MenuItem{}, ErrItemNotFound
}

// Filter returns the items matching a search query, or the items of a
// category when the query is blank.
func (c *Catalog) Filter(category, query string) []ledger.MenuItem {
	c.mu.RLock()
	defer c.mu.RUnlock()

	query = strings.ToLower(strings.TrimSpace(query))
	out := []ledger.MenuItem{}
	for _, it := range c.items {
		switch {
		case query != "":
			if strings.Contains(strings.ToLower(it.Name), query) {
				out = append(out, it)
			}
		case category == FavoritesCategory:
			if c.favorites[it.ID] {
				out = append(out, it)
			}
		case it.Category == category:
			out = append(out, it)
		}
	}
	return out
}

// NavCategories lists categories for navigation, favorites first when any.
func (c *Catalog) NavCategories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.categories)+1)
	if len(c.favorites) > 0 {
		out = append(out, FavoritesCategory)
	}
	return append(out, c.categories...)
}

func (c *Catalog) indexLocked(id int) int {
	return slices.IndexFunc(c.items, func(it ledger.MenuItem) bool { return it.ID == id })
}

// mutate applies a local change, pushes it and undoes it if the push fails.
// apply and inverse run under the write lock.
func (c *Catalog) mutate(ctx context.Context, action string, payload map[string]interface{}, apply, inverse func()) (*remote.Reply, error) {
	c.mu.Lock()
	apply()
	c.mu.Unlock()

	reply, err := c.remote.Mutate(ctx, action, payload)
	if err != nil {
		c.mu.Lock()
		inverse()
		c.mu.Unlock()
		c.logger.Error("menu change rejected, rolled back", "action", action, "error", err)
		c.journalf(ctx, "Menu sync failed: %s - %v", action, err)
		return nil, err
	}
	c.journalf(ctx, "Menu sync succeeded: %s", action)
	return reply, nil
}

// AddItem creates an item. It shows locally under a temporary negative id
// until the remote returns the stored item.
func (c *Catalog) AddItem(ctx context.Context, item ledger.MenuItem) (ledger.MenuItem, error) {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" || item.Category == "" || item.Price.IsNegative() {
		return ledger.MenuItem{}, ErrInvalidItem
	}

	c.mu.Lock()
	tempID := c.nextTempID
	c.nextTempID--
	c.mu.Unlock()

	pending := item
	pending.ID = tempID
	item.ID = 0

	reply, err := c.mutate(ctx, remote.ActionAddMenuItem, map[string]interface{}{"item": item},
		func() { c.items = append(c.items, pending) },
		func() { c.removeLocked(tempID) },
	)
	if err != nil {
		return ledger.MenuItem{}, err
	}
	if reply.Item == nil {
		c.mu.Lock()
		c.removeLocked(tempID)
		c.mu.Unlock()
		return ledger.MenuItem{}, ErrItemNotAcknowledged
	}

	saved := *reply.Item
	c.mu.Lock()
	if i := c.indexLocked(tempID); i >= 0 {
		c.items[i] = saved
	} else {
		c.items = append(c.items, saved)
	}
	c.mu.Unlock()

	c.logger.Info("menu item added", "id", saved.ID, "name", saved.Name)
	c.persistCache(ctx)
	return saved, nil
}

func (c *Catalog) UpdateItem(ctx context.Context, item ledger.MenuItem) (ledger.MenuItem, error) {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" || item.Category == "" || item.Price.IsNegative() {
		return ledger.MenuItem{}, ErrInvalidItem
	}
	original, err := c.Item(item.ID)
	if err != nil {
		return ledger.MenuItem{}, err
	}

	_, err = c.mutate(ctx, remote.ActionUpdateMenuItem, map[string]interface{}{"item": item},
		func() { c.setLocked(item) },
		func() { c.setLocked(original) },
	)
	if err != nil {
		return ledger.MenuItem{}, err
	}

	c.logger.Info("menu item updated", "id", item.ID)
	c.persistCache(ctx)
	return item, nil
}

func (c *Catalog) DeleteItem(ctx context.Context, id int) error {
	c.mu.RLock()
	idx := c.indexLocked(id)
	var original ledger.MenuItem
	if idx >= 0 {
		original = c.items[idx]
	}
	c.mu.RUnlock()
	if idx < 0 {
		return ErrItemNotFound
	}

	_, err := c.mutate(ctx, remote.ActionDeleteMenuItem, map[string]interface{}{"itemId": id},
		func() { c.removeLocked(id) },
		func() { c.items = slices.Insert(c.items, min(idx, len(c.items)), original) },
	)
	if err != nil {
		return err
	}

	c.mu.Lock()
	delete(c.favorites, id)
	c.mu.Unlock()
	c.persistFavorites(ctx)

	c.logger.Info("menu item deleted", "id", id)
	c.persistCache(ctx)
	return nil
}

func (c *Catalog) AddCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" || name == FavoritesCategory {
		return ErrInvalidCategory
	}
	c.mu.RLock()
	exists := slices.Contains(c.categories, name)
	c.mu.RUnlock()
	if exists {
		return ErrDuplicateCategory
	}

	_, err := c.mutate(ctx, remote.ActionAddCategory, map[string]interface{}{"category": name},
		func() { c.categories = append(c.categories, name) },
		func() {
			if i := slices.Index(c.categories, name); i >= 0 {
				c.categories = slices.Delete(c.categories, i, i+1)
			}
		},
	)
	if err != nil {
		return err
	}
	c.persistCache(ctx)
	return nil
}

// DeleteCategory removes an empty category.
func (c *Catalog) DeleteCategory(ctx context.Context, name string) error {
	c.mu.RLock()
	idx := slices.Index(c.categories, name)
	inUse := 0
	for _, it := range c.items {
		if it.Category == name {
			inUse++
		}
	}
	c.mu.RUnlock()

	if idx < 0 {
		return ErrCategoryNotFound
	}
	if inUse > 0 {
		return fmt.Errorf("%w: %d items in %s", ErrCategoryInUse, inUse, name)
	}

	_, err := c.mutate(ctx, remote.ActionDeleteCategory, map[string]interface{}{"category": name},
		func() {
			if i := slices.Index(c.categories, name); i >= 0 {
				c.categories = slices.Delete(c.categories, i, i+1)
			}
		},
		func() { c.categories = slices.Insert(c.categories, min(idx, len(c.categories)), name) },
	)
	if err != nil {
		return err
	}
	c.persistCache(ctx)
	return nil
}

func (c *Catalog) setLocked(item ledger.MenuItem) {
	if i := c.indexLocked(item.ID); i >= 0 {
		c.items[i] = item
	}
}

func (c *Catalog) removeLocked(id int) {
	if i := c.indexLocked(id); i >= 0 {
		c.items = slices.Delete(c.items, i, i+1)
	}
}

// ToggleFavorite flips an item's favorite flag and reports the new state.
func (c *Catalog) ToggleFavorite(ctx context.Context, id int) (bool, error) {
	c.mu.Lock()
	if c.indexLocked(id) < 0 {
		c.mu.Unlock()
		return false, ErrItemNotFound
	}
	on := !c.favorites[id]
	if on {
		c.favorites[id] = true
	} else {
		delete(c.favorites, id)
	}
	c.mu.Unlock()

	c.persistFavorites(ctx)
	return on, nil
}

// Favorites returns the favorite item ids in ascending order.
func (c *Catalog) Favorites() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]int, 0, len(c.favorites))
	for id := range c.favorites {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (c *Catalog) loadFavorites(ctx context.Context) {
	var ids []int
	if err := storage.GetJSON(ctx, c.kv, storage.FavoritesKey, &ids); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			c.logger.Error("cannot read favorites", "error", err)
		}
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.favorites = make(map[int]bool, len(ids))
	for _, id := range ids {
		c.favorites[id] = true
	}
}

func (c *Catalog) persistFavorites(ctx context.Context) {
	if err := storage.PutJSON(ctx, c.kv, storage.FavoritesKey, c.Favorites()); err != nil {
		c.logger.Error("cannot persist favorites", "error", err)
	}
}

func (c *Catalog) readCache(ctx context.Context) (*cacheEntry, error) {
	var entry cacheEntry
	if err := storage.GetJSON(ctx, c.kv, storage.MenuCacheKey, &entry); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			c.logger.Error("cannot read menu cache", "error", err)
		}
		return nil, err
	}
	return &entry, nil
}

// persistCache stores the confirmed menu. Items still waiting for a server id
// are left out.
func (c *Catalog) persistCache(ctx context.Context) {
	c.mu.RLock()
	entry := cacheEntry{
		Timestamp:  c.clock.Now(),
		MenuItems:  make([]ledger.MenuItem, 0, len(c.items)),
		Categories: slices.Clone(c.categories),
	}
	for _, it := range c.items {
		if it.ID > 0 {
			entry.MenuItems = append(entry.MenuItems, it)
		}
	}
	c.mu.RUnlock()

	if err := storage.PutJSON(ctx, c.kv, storage.MenuCacheKey, entry); err != nil {
		c.logger.Error("cannot persist menu cache", "error", err)
	}
}

func (c *Catalog) journalf(ctx context.Context, format string, args ...interface{}) {
	if c.journal != nil {
		c.journal.LogAction(ctx, fmt.Sprintf(format, args...))
	}
}
