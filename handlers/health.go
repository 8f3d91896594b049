package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/simplelms/api/database"
)

// HandleCheckHealth reports process liveness and database reachability
func HandleCheckHealth(c *fiber.Ctx, store database.Storage) error {
	status := "ok"
	dbStatus := "ok"
	if err := store.HealthCheck(); err != nil {
		status = "degraded"
		dbStatus = err.Error()
	}

	return c.JSON(fiber.Map{
		"status":   status,
		"database": dbStatus,
	})
}
