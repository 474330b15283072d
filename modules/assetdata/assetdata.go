// Package assetdata implements the process-shared asset-description cache
// SPEC_FULL.md's supplemented feature list calls for (§5 "Asset-data cache:
// per-process; mutex guarding the set"): every inventory fetch feeds its
// descriptions[] into this cache, keyed by (appid, classid, instanceid), so
// other modules (tradeoffers, autoaccept) can resolve an asset's display
// name without re-fetching it. Grounded on the merge-by-key idiom in the
// teacher's steamcommunity/inventory.go parseInventoryResponse, generalized
// from one inventory response's scope to a process-wide cache.
package assetdata

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/k64z/steamfleet/internal/datastore"
)

const bucket = "assetdata"

// Tag is one inventory_tag-style classification on a description.
type Tag struct {
	Category     string
	InternalName string
	Name         string
}

// Description is the merged, cached view of one (appid, classid,
// instanceid) asset description.
type Description struct {
	AppID      uint32
	ClassID    string
	InstanceID string
	Name       string
	MarketName string
	IconURL    string
	Tradable   bool
	Marketable bool
	Tags       []Tag
}

var (
	mu    sync.Mutex
	cache = map[string]Description{}
	store *datastore.Store
)

func key(appID uint32, classID, instanceID string) string {
	return fmt.Sprintf("%d_%s_%s", appID, classID, instanceID)
}

// EnablePersistence backs the cache with a SQLite-resident store (§4.13:
// the PackageData and asset-data caches may grow past what's comfortable to
// keep as one JSON document), so the process-shared cache survives a
// restart instead of starting cold on every run.
func EnablePersistence(ctx context.Context, path string) error {
	s, err := datastore.Open(ctx, path)
	if err != nil {
		return fmt.Errorf("assetdata: open store: %w", err)
	}
	mu.Lock()
	store = s
	mu.Unlock()
	return nil
}

// Merge inserts or overwrites descs in the shared cache, persisting each to
// the backing store when one is configured.
func Merge(descs []Description) {
	mu.Lock()
	defer mu.Unlock()
	for _, d := range descs {
		k := key(d.AppID, d.ClassID, d.InstanceID)
		cache[k] = d
		if store != nil {
			if blob, err := json.Marshal(d); err == nil {
				_ = store.Put(context.Background(), bucket, k, int64(len(cache)), blob)
			}
		}
	}
}

// Get looks up a previously merged description, falling back to the
// backing store (and repopulating the in-memory cache) on a memory miss.
func Get(appID uint32, classID, instanceID string) (Description, bool) {
	k := key(appID, classID, instanceID)

	mu.Lock()
	if d, ok := cache[k]; ok {
		mu.Unlock()
		return d, true
	}
	s := store
	mu.Unlock()

	if s == nil {
		return Description{}, false
	}
	blob, _, ok, err := s.Get(context.Background(), bucket, k)
	if err != nil || !ok {
		return Description{}, false
	}
	var d Description
	if err := json.Unmarshal(blob, &d); err != nil {
		return Description{}, false
	}

	mu.Lock()
	cache[k] = d
	mu.Unlock()
	return d, true
}
