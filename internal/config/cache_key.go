package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentSessionKey returns the cache key for a student's login session
func (r *CacheKeyStruct) StudentSessionKey(studentID int) string {
	return fmt.Sprintf("login:%d", studentID)
}

// ActivityPayloadKey returns the cache key for an activity's student-facing payload
func (r *CacheKeyStruct) ActivityPayloadKey(activityID string) string {
	return fmt.Sprintf("activity:%s:payload", activityID)
}

// ActivityAnswerKey returns the cache key for an activity's answer key hash
func (r *CacheKeyStruct) ActivityAnswerKey(activityID string) string {
	return fmt.Sprintf("activity:%s:key", activityID)
}

// StudentDraftKey returns the cache key for a student's unsubmitted working answers
func (r *CacheKeyStruct) StudentDraftKey(activityID string, studentID int) string {
	return fmt.Sprintf("student:%d:activity:%s:drafts", studentID, activityID)
}

// StudentActiveActivityKey returns the cache key for a student's currently open activity
func (r *CacheKeyStruct) StudentActiveActivityKey(studentID int) string {
	return fmt.Sprintf("student:%d:active_activity", studentID)
}

// ActivityCompletionChannel returns the Redis PubSub channel for activity completions
func (r *CacheKeyStruct) ActivityCompletionChannel(activityID string) string {
	return fmt.Sprintf("activity:%s:completions", activityID)
}

var CacheKey = NewCacheKeyStruct()
