// Package iocache persists churn caches and audit history in SQL backends.
package iocache

import (
	"sync"

	"github.com/huangsam/ipaudit/internal/contract"
)

// StoreManagerImpl holds the process-wide churn cache and history stores.
type StoreManagerImpl struct {
	sync.RWMutex // Protects the store pointers during initialization
	churn        contract.CacheStore
	history      contract.HistoryStore
}

var _ contract.StoreManager = &StoreManagerImpl{} // Compile-time check

// GetChurnStore returns the churn CacheStore, or nil when caching is off.
func (mgr *StoreManagerImpl) GetChurnStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.churn
}

// GetHistoryStore returns the HistoryStore, or nil when history is off.
func (mgr *StoreManagerImpl) GetHistoryStore() contract.HistoryStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.history
}
