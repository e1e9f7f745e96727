package config

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// WindowSnapshotKey returns the cache key for the global testing window snapshot.
func (r *CacheKeyStruct) WindowSnapshotKey() string {
	return "window:snapshot"
}

var CacheKey = NewCacheKeyStruct()
