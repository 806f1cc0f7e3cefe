package quota

import "time"

// Account tracks storage consumption for one owner.
// Invariant: 0 <= UsedBytes <= LimitBytes.
type Account struct {
	OwnerID    string    `json:"ownerId"`
	UsedBytes  int64     `json:"usedBytes"`
	LimitBytes int64     `json:"limitBytes"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Check is the result of a quota pre-flight read.
type Check struct {
	HasSpace       bool  `json:"hasSpace"`
	UsedBytes      int64 `json:"usedBytes"`
	LimitBytes     int64 `json:"limitBytes"`
	AvailableBytes int64 `json:"availableBytes"`
}
