package entity

import (
	"strconv"
	"strings"
	"time"
)

// Task is a row in the `tasks` table. OwnerID is always taken from the
// authenticated caller.
type Task struct {
	ID          string    `db:"id" json:"id"`
	Description string    `db:"description" json:"description"`
	Progress    bool      `db:"progress" json:"progress"`
	OwnerID     string    `db:"owner_id" json:"owner"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// Draft is the create input. Anything else in the body, an owner included,
// is ignored.
type Draft struct {
	Description string `json:"description"`
	Progress    bool   `json:"progress"`
}

// Patch is the allow-listed update. Nil fields are left untouched.
type Patch struct {
	Description *string `json:"description,omitempty"`
	Progress    *bool   `json:"progress,omitempty"`
}

func (p Patch) Empty() bool { return p.Description == nil && p.Progress == nil }

// Sort columns a list may be ordered by, keyed by their public names.
var sortColumns = map[string]string{
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"description": "description",
	"progress":    "progress",
}

// ListOptions narrows a task listing. Zero Limit and Skip mean "all" and
// "none"; an empty SortBy keeps creation order.
type ListOptions struct {
	Progress *bool
	Limit    int
	Skip     int
	SortBy   string
	Desc     bool
}

// ParseListOptions reads the listing query parameters. An empty progress
// means no filter. Unknown sort keys and invalid or negative paging values
// are dropped, not rejected.
func ParseListOptions(progress, limit, skip, sort string) ListOptions {
	var opts ListOptions
	if progress != "" {
		v := progress == "true"
		opts.Progress = &v
	}
	if n, err := strconv.Atoi(limit); err == nil && n > 0 {
		opts.Limit = n
	}
	if n, err := strconv.Atoi(skip); err == nil && n > 0 {
		opts.Skip = n
	}
	if sort != "" {
		key, dir, _ := strings.Cut(sort, ":")
		if col, ok := sortColumns[key]; ok {
			opts.SortBy = col
			opts.Desc = dir == "desc"
		}
	}
	return opts
}
