package deps

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/detailcal/internal/bookings"
	"github.com/MrSnakeDoc/detailcal/internal/calendar"
	"github.com/MrSnakeDoc/detailcal/internal/catalog"
	"github.com/MrSnakeDoc/detailcal/internal/customers"
	"github.com/MrSnakeDoc/detailcal/internal/form"
	"github.com/MrSnakeDoc/detailcal/internal/logger"
	"github.com/MrSnakeDoc/detailcal/internal/notify"
	"github.com/MrSnakeDoc/detailcal/internal/version"
)

// OutboxStats reports the side-effect queue depth. *redisstore.Store implements it.
type OutboxStats interface {
	Pending(ctx context.Context) (int64, error)
	DeadLetters(ctx context.Context) (int64, error)
}

type Deps struct {
	Logger               logger.Logger
	StartTime            time.Time
	Build                version.Info                    // Build metadata reported by /healthz
	TimeNow              func() time.Time                // for testing, defaults to time.Now
	AllowedHosts         []string                        // Host headers allowed to access the server
	AllowedCIDRS         []string                        // IPs allowed to access healthz/readyz/infra/reload endpoints
	TrustProxy           bool                            // true if running behind a trusted reverse proxy (e.g., cloudflared)
	RedisClient          *redis.Client                   // Redis client connection
	Bookings             *bookings.Store                 // In-memory booking collection
	Catalog              *catalog.Catalog                // Services, add-ons and employees
	Customers            *customers.Directory            // Customer picker source
	Notifications        *notify.Feed                    // Recent user-facing notifications
	Forms                *form.Controller                // Booking edit sessions and quick actions
	Outbox               OutboxStats                     // Side-effect queue depth (nil hides it from /infra)
	Calendar             calendar.Options                // Timezone, timeline and archive defaults
	ReloadTrigger        chan struct{}                   // Channel to trigger a manual booking refresh
	CatalogReloadTrigger chan struct{}                   // Channel to trigger a manual catalog reload
	WriteLimit           func(http.Handler) http.Handler // Rate limiter for mutating routes (nil = none)
	JWTSecret            string                          // HS256 secret identifying the actor (empty = system actor)
}

// Now returns TimeNow() or time.Now() when unset.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}

// Location returns the business timezone.
func (d Deps) Location() *time.Location {
	if d.Calendar.Location != nil {
		return d.Calendar.Location
	}
	return time.Local
}
