package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/student-dashboard/internal/model"
	"github.com/stemsi/student-dashboard/internal/query"
	"github.com/stemsi/student-dashboard/internal/response"
)

const healthTimeout = 2 * time.Second

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves health and form metadata.
type SystemHandler struct {
	db        Pinger
	rdb       *redis.Client
	startTime time.Time
	log       zerolog.Logger
}

// NewSystemHandler creates a new SystemHandler. rdb may be nil.
func NewSystemHandler(db Pinger, rdb *redis.Client, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		db:        db,
		rdb:       rdb,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

type healthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
	Uptime   string `json:"uptime"`
}

// Health godoc
// GET /health
// 200 when the database answers a ping, 503 otherwise. The cache is
// reported but never fails the check.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status := healthStatus{
		Status:   "ok",
		Database: "ok",
		Cache:    "disabled",
		Uptime:   time.Since(h.startTime).Round(time.Second).String(),
	}

	if h.rdb != nil {
		status.Cache = "ok"
		if err := h.rdb.Ping(ctx).Err(); err != nil {
			h.log.Warn().Err(err).Msg("cache ping failed")
			status.Cache = "unreachable"
		}
	}

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			h.log.Error().Err(err).Msg("database ping failed")
			response.Fail(c, http.StatusServiceUnavailable, response.ErrUnavailable)
			return
		}
	}

	response.JSON(c, http.StatusOK, status)
}

type metaResponse struct {
	Departments []model.Department `json:"departments"`
	BloodGroups []string           `json:"blood_groups"`
	Years       []int              `json:"years"`
	SortKeys    []string           `json:"sort_keys"`
	PageSize    int                `json:"page_size"`
}

// Meta godoc
// GET /api/meta
// Returns the option lists forms offer.
func (h *SystemHandler) Meta(c *gin.Context) {
	response.JSON(c, http.StatusOK, metaResponse{
		Departments: model.Departments,
		BloodGroups: model.BloodGroups,
		Years:       model.Years,
		SortKeys:    query.SortKeys,
		PageSize:    query.DefaultPageSize,
	})
}
