package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// BankPoolKey returns the cache key for a bank's approved-question pool snapshot
func (r *CacheKeyStruct) BankPoolKey(bankID string) string {
	return fmt.Sprintf("bank:%s:pool", bankID)
}

// TestMetadataKey returns the cache key for an assembled test's diagnostics
func (r *CacheKeyStruct) TestMetadataKey(testID string) string {
	return fmt.Sprintf("test:%s:meta", testID)
}

// DocChangeChannel returns the Redis PubSub channel carrying change
// notifications for a document (bank, TOS or test)
func (r *CacheKeyStruct) DocChangeChannel(docID string) string {
	return fmt.Sprintf("doc:%s:changes", docID)
}

var CacheKey = NewCacheKeyStruct()
