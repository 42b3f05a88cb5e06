// AngelaMos | 2026
// dto.go

package admin

// ContentStats counts rows across the content and interaction tables.
type ContentStats struct {
	Users        int64 `db:"users"         json:"users"`
	Personas     int64 `db:"personas"      json:"personas"`
	Advice       int64 `db:"advice"        json:"advice"`
	AdviceSlips  int64 `db:"advice_slips"  json:"advice_slips"`
	Tags         int64 `db:"tags"          json:"tags"`
	Views        int64 `db:"views"         json:"views"`
	Likes        int64 `db:"likes"         json:"likes"`
	Comments     int64 `db:"comments"      json:"comments"`
	CommentLikes int64 `db:"comment_likes" json:"comment_likes"`
	Taggings     int64 `db:"taggings"      json:"taggings"`
}

// PersonaUsage is how much advice a persona has voiced and how it landed.
type PersonaUsage struct {
	PersonaID   int64  `db:"persona_id"   json:"persona_id"`
	Name        string `db:"name"         json:"name"`
	AdviceCount int64  `db:"advice_count" json:"advice_count"`
	SlipCount   int64  `db:"slip_count"   json:"slip_count"`
	Likes       int64  `db:"likes"        json:"likes"`
}

type TopAdvice struct {
	EntityID    int64  `db:"entity_id"    json:"entity_id"`
	PersonaName string `db:"persona_name" json:"persona_name"`
	Content     string `db:"content"      json:"content"`
	Likes       int64  `db:"likes"        json:"likes"`
	Views       int64  `db:"views"        json:"views"`
}

// SlipCoverage reports how much of the advice-slip universe has been pulled
// from upstream. Remaining reaching zero means only reuse can succeed.
type SlipCoverage struct {
	Universe  int64 `json:"universe"`
	Persisted int64 `json:"persisted"`
	Remaining int64 `json:"remaining"`
}

type SystemStatsResponse struct {
	Content  *ContentStats  `json:"content,omitempty"`
	Slips    *SlipCoverage  `json:"slips,omitempty"`
	Database DatabaseStatus `json:"database"`
	Redis    RedisStatus    `json:"redis"`
	Runtime  RuntimeStats   `json:"runtime"`
}

type DatabaseStatus struct {
	Healthy bool         `json:"healthy"`
	Stats   *DBPoolStats `json:"stats,omitempty"`
}

type RedisStatus struct {
	Healthy bool            `json:"healthy"`
	Stats   *RedisPoolStats `json:"stats,omitempty"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	NumGC        uint32 `json:"num_gc"`
}
