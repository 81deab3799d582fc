package tokenstore

import (
	"time"

	"karesis-backend/lib/scrapers/karesis"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Expirable is a Store with a TTL and a size cap, for deployments where
// leaking a session per login is not acceptable. Evicted sessions simply
// force the user through login again.
type Expirable struct {
	cache *expirable.LRU[string, *karesis.Client]
}

func NewExpirable(size int, ttl time.Duration) *Expirable {
	return &Expirable{
		cache: expirable.NewLRU[string, *karesis.Client](size, nil, ttl),
	}
}

func (e *Expirable) Get(token string) (*karesis.Client, bool) {
	return e.cache.Get(token)
}

func (e *Expirable) Put(token string, client *karesis.Client) {
	e.cache.Add(token, client)
}

func (e *Expirable) Delete(token string) {
	e.cache.Remove(token)
}
