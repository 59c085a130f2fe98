// Package imagecache holds downloaded venue images in memory.
package imagecache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCapacity is the number of images kept when no size is given.
const DefaultCapacity = 64

// Cache is a bounded image store keyed by image URL.
type Cache interface {
	Get(key string) ([]byte, bool)
	Add(key string, image []byte)
	Len() int
}

// LRU is a Cache that evicts the least recently used image at capacity.
type LRU struct {
	images *lru.Cache[string, []byte]
}

// New returns an LRU holding at most capacity images.
func New(capacity int) (*LRU, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c, err := lru.New[string, []byte](capacity)
	if err != nil {
		return nil, fmt.Errorf("creating image cache: %w", err)
	}
	return &LRU{images: c}, nil
}

func (c *LRU) Get(key string) ([]byte, bool) { return c.images.Get(key) }

func (c *LRU) Add(key string, image []byte) { c.images.Add(key, image) }

func (c *LRU) Len() int { return c.images.Len() }
