package deps

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/recall/internal/logger"
	"github.com/MrSnakeDoc/recall/internal/state"
	"github.com/MrSnakeDoc/recall/internal/web"
)

// Pinger checks that a remote dependency answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	TimeNow        func() time.Time // for testing, defaults to time.Now
	Location       *time.Location   // zone that defines "today", nil keeps the clock's
	AllowedHosts   []string         // Host headers allowed to reach the pages
	AllowedCIDRS   []string         // IPs allowed to reach the ops endpoints
	TrustProxy     bool             // true if running behind a trusted reverse proxy
	CORSOrigins    []string         // origins allowed to call /api
	RateBurst      int              // per-client burst on mutating routes
	RateRefill     int              // per-client tokens per minute on mutating routes
	Bookmarks      *state.Container // bookmark collection and operation states
	Renderer       *web.Renderer    // page templates
	List           *web.ListBuilder // bookmark -> list item
	API            Pinger           // bookmark API reachability
	APIBaseURL     string           // reported by /infra
	RedisClient    *redis.Client    // nil when operation status is kept in memory
	RefreshTrigger chan struct{}    // manual refetch trigger
}

// Now returns TimeNow() or time.Now(), in Location when set. The form's
// default date and the list's classification both derive from it.
func (d Deps) Now() time.Time {
	now := time.Now()
	if d.TimeNow != nil {
		now = d.TimeNow()
	}
	if d.Location != nil {
		now = now.In(d.Location)
	}
	return now
}
