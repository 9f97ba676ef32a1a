package statistics

import (
	"log"
	"strconv"
	"time"

	"github.com/ManuelReschke/PurchaseDesk/app/repository"
	"github.com/ManuelReschke/PurchaseDesk/internal/pkg/cache"
)

const (
	CacheKeyCustomers = "statistics:customers:total"
	CacheKeyPurchases = "statistics:purchases:total"
	CacheKeyCatalog   = "statistics:catalog:total"
	CacheExpiration   = 30 * time.Minute
)

// Data holds the data set totals shown on the settings page
type Data struct {
	Customers      int64
	Purchases      int64
	CatalogEntries int64
}

// Store is where counts are cached between requests
type Store interface {
	Get(key string) (string, error)
	Set(key string, value interface{}, expiration time.Duration) error
}

type cacheStore struct{}

func (cacheStore) Get(key string) (string, error) { return cache.Get(key) }

func (cacheStore) Set(key string, value interface{}, expiration time.Duration) error {
	return cache.Set(key, value, expiration)
}

// CacheStore keeps the counts in the shared Redis cache
func CacheStore() Store {
	return cacheStore{}
}

// Service reads totals from the cache and falls back to the database
type Service struct {
	store Store
	repos *repository.Repositories
}

func New(store Store, repos *repository.Repositories) *Service {
	return &Service{store: store, repos: repos}
}

// Get returns the totals. A count that cannot be read is zero.
func (s *Service) Get() Data {
	return Data{
		Customers:      s.cached(CacheKeyCustomers, s.repos.Customer.Count),
		Purchases:      s.cached(CacheKeyPurchases, s.repos.Customer.CountPurchaseRecords),
		CatalogEntries: s.cached(CacheKeyCatalog, s.repos.Catalog.Count),
	}
}

func (s *Service) cached(key string, count func() (int64, error)) int64 {
	if val, err := s.store.Get(key); err == nil {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			return n
		}
	}

	n, err := count()
	if err != nil {
		log.Printf("Error counting %s: %v", key, err)
		return 0
	}
	if err := s.store.Set(key, strconv.FormatInt(n, 10), CacheExpiration); err != nil {
		log.Printf("Error caching %s: %v", key, err)
	}
	return n
}
