package controllers

import (
	"context"
	"net/http"

	"github.com/vitrinelabs/vitrine-backend/api/responses"
	pkgerrors "github.com/vitrinelabs/vitrine-backend/pkg/errors"
	"github.com/vitrinelabs/vitrine-backend/pkg/logger"
)

// Pinger is anything readiness should verify. Nil dependencies are skipped.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController serves liveness and readiness probes.
type HealthController struct {
	db    Pinger
	redis Pinger
	logg  *logger.Logger
}

func NewHealthController(db, redis Pinger, logg *logger.Logger) *HealthController {
	return &HealthController{db: db, redis: redis, logg: logg}
}

// Live handles GET /health/live.
func (c *HealthController) Live(w http.ResponseWriter, r *http.Request) {
	responses.WriteOK(w, map[string]any{"ok": true})
}

// Ready handles GET /health/ready.
func (c *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}

	if c.db != nil {
		if err := c.db.Ping(r.Context()); err != nil {
			checks["db"] = err.Error()
		}
	}
	if c.redis != nil {
		if err := c.redis.Ping(r.Context()); err != nil {
			checks["redis"] = err.Error()
		}
	}

	if len(checks) > 0 {
		responses.WriteError(r.Context(), c.logg, w,
			pkgerrors.New(pkgerrors.CodeDependency, "dependency not ready").WithDetails(checks))
		return
	}
	responses.WriteOK(w, map[string]any{"ok": true})
}
