package config

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentListKey returns the cache key for the full, newest-first student list
func (r *CacheKeyStruct) StudentListKey() string {
	return "students:list"
}

var CacheKey = NewCacheKeyStruct()
