package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// QuizSessionKey returns the key holding a serialized quiz session
func (r *CacheKeyStruct) QuizSessionKey(sessionID string) string {
	return fmt.Sprintf("quiz:session:%s", sessionID)
}

// StartRateLimitKey returns the counter key for start requests from one client
func (r *CacheKeyStruct) StartRateLimitKey(clientIP string) string {
	return fmt.Sprintf("ratelimit:start:%s", clientIP)
}

var CacheKey = NewCacheKeyStruct()
