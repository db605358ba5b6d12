package cache

import (
	"fmt"
	"time"
)

const (
	PostKeyPrefix   = "post:%d"
	ThreadKeyPrefix = "post:%d:comments"
	UserKeyPrefix   = "user:%d"
)

// TTLs are short on purpose: the cache only smooths bursts of UI navigation,
// it is not the offline store (internal/store is).
const (
	PostTTL   = 5 * time.Minute
	ThreadTTL = 2 * time.Minute
	UserTTL   = 5 * time.Minute
)

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func ThreadKey(postID uint) string {
	return fmt.Sprintf(ThreadKeyPrefix, postID)
}

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}
