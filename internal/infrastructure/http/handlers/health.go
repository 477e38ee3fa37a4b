package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const readinessTimeout = 3 * time.Second

// HealthHandler handles GET /health, the liveness probe.
// Returns 200 immediately; confirms the process is alive.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Checker pings one dependency.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc struct {
	Label string
	Fn    func(ctx context.Context) error
}

func (f CheckerFunc) Name() string                    { return f.Label }
func (f CheckerFunc) Check(ctx context.Context) error { return f.Fn(ctx) }

// PostgresChecker pings the relational store.
func PostgresChecker(pool *pgxpool.Pool) Checker {
	return CheckerFunc{Label: "postgres", Fn: pool.Ping}
}

// MongoChecker pings the audit database.
func MongoChecker(db *mongo.Database) Checker {
	return CheckerFunc{Label: "mongodb", Fn: func(ctx context.Context) error {
		return db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
	}}
}

// RedisChecker pings the throttle store.
func RedisChecker(rdb *redis.Client) Checker {
	return CheckerFunc{Label: "redis", Fn: func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}}
}

// HealthDependenciesHandler handles GET /health/ready, the readiness probe.
// Checks every registered dependency before declaring the service ready.
type HealthDependenciesHandler struct {
	checkers []Checker
}

func NewHealthDependenciesHandler(checkers ...Checker) *HealthDependenciesHandler {
	return &HealthDependenciesHandler{checkers: checkers}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

func (h *HealthDependenciesHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	type result struct {
		name string
		err  error
	}
	results := make(chan result, len(h.checkers))
	for _, chk := range h.checkers {
		go func(chk Checker) {
			results <- result{name: chk.Name(), err: chk.Check(ctx)}
		}(chk)
	}

	deps := make(map[string]dependencyStatus, len(h.checkers))
	healthy := true
	for range h.checkers {
		r := <-results
		if r.err != nil {
			deps[r.name] = dependencyStatus{Status: "unhealthy", Error: r.err.Error()}
			healthy = false
			continue
		}
		deps[r.name] = dependencyStatus{Status: "ok"}
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, readinessResponse{
		Status:       status,
		Dependencies: deps,
	})
}
