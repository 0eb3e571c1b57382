package triage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lu-zhengda/gatekeeper/internal/domain"
	"github.com/lu-zhengda/gatekeeper/internal/store"
)

// CacheKey is the property under which the serialized cache is stored.
const CacheKey = "CONTACT_CACHE"

// ErrCorruptCache is returned when the stored cache blob cannot be decoded.
// The blob is never reset on this error.
var ErrCorruptCache = errors.New("contact cache is corrupt")

// Cache maps normalized sender addresses to the reason they are not
// strangers. It is read in full on every lookup and rewritten in full on
// every Put; entries are never removed.
type Cache struct {
	props     store.PropertyStore
	accountID string
}

// NewCache returns the contact cache for an account.
func NewCache(props store.PropertyStore, accountID string) *Cache {
	return &Cache{props: props, accountID: accountID}
}

// All returns a copy of every cached entry.
func (c *Cache) All(ctx context.Context) (map[string]domain.Classification, error) {
	raw, err := c.props.GetProperty(ctx, c.accountID, CacheKey)
	if errors.Is(err, store.ErrNotFound) || (err == nil && raw == "") {
		return make(map[string]domain.Classification), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read contact cache: %w", err)
	}

	var stored map[string]string
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptCache, err)
	}

	entries := make(map[string]domain.Classification, len(stored))
	for addr, v := range stored {
		cls, err := domain.ParseClassification(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorruptCache, addr, err)
		}
		entries[addr] = cls
	}
	return entries, nil
}

// Get returns the classification cached for addr.
func (c *Cache) Get(ctx context.Context, addr string) (domain.Classification, bool, error) {
	entries, err := c.All(ctx)
	if err != nil {
		return "", false, err
	}
	cls, ok := entries[domain.NormalizeAddress(addr)]
	return cls, ok, nil
}

// Contains reports whether addr has any cached classification.
func (c *Cache) Contains(ctx context.Context, addr string) (bool, error) {
	_, ok, err := c.Get(ctx, addr)
	return ok, err
}

// Put records cls for addr, overwriting any previous entry, and persists
// the whole map immediately.
func (c *Cache) Put(ctx context.Context, addr string, cls domain.Classification) error {
	entries, err := c.All(ctx)
	if err != nil {
		return err
	}
	entries[domain.NormalizeAddress(addr)] = cls

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode contact cache: %w", err)
	}
	if err := c.props.SetProperties(ctx, c.accountID, map[string]string{CacheKey: string(data)}); err != nil {
		return fmt.Errorf("failed to write contact cache: %w", err)
	}
	return nil
}
