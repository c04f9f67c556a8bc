package agg

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/ipaudit/internal/contract"
	"github.com/huangsam/ipaudit/schema"
)

// currentCacheVersion defines the version of the cached churn payload
const currentCacheVersion = 1

// cacheTTL bounds how long a cached aggregation is trusted
const cacheTTL = 7 * 24 * time.Hour

// CachedAggregateChurn returns churn for the repository, reusing a cached
// aggregation for the same HEAD when one exists.
func CachedAggregateChurn(ctx context.Context, repoPath string, client contract.GitClient, store contract.CacheStore) (*schema.ChurnOutput, error) {
	if store == nil {
		return AggregateChurn(ctx, repoPath, client)
	}

	key := generateCacheKey(ctx, repoPath, client)
	if result := checkCacheHit(store, key); result != nil {
		return result, nil
	}
	return computeAndStore(ctx, repoPath, client, store, key)
}

// checkCacheHit attempts to retrieve and validate a cached result
func checkCacheHit(store contract.CacheStore, key string) *schema.ChurnOutput {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return nil // Cache miss
	}
	if version != currentCacheVersion || time.Since(time.Unix(ts, 0)) > cacheTTL {
		return nil // Stale or version mismatch
	}
	var result schema.ChurnOutput
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	if result.FileChurn == nil {
		result.FileChurn = make(map[string]map[string]int)
	}
	if result.AuthorChurn == nil {
		result.AuthorChurn = make(map[string]int)
	}
	return &result
}

// computeAndStore computes the result and stores it in cache
func computeAndStore(ctx context.Context, repoPath string, client contract.GitClient, store contract.CacheStore, key string) (*schema.ChurnOutput, error) {
	result, err := AggregateChurn(ctx, repoPath, client)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(result); err == nil {
		if err := store.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
			contract.LogWarn("Failed to cache churn", err)
		}
	}
	return result, nil
}

// generateCacheKey ties the cache entry to the repository path and its HEAD commit
func generateCacheKey(ctx context.Context, repoPath string, client contract.GitClient) string {
	repoHash, err := client.GetRepoHash(ctx, repoPath)
	if err != nil {
		repoHash = ""
	}
	key := fmt.Sprintf("churn:%s:%s", repoPath, repoHash)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}
