package rest

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Builder-Lawyers/execution-service/internal/application"
	"github.com/Builder-Lawyers/execution-service/internal/application/dto"
	"github.com/Builder-Lawyers/execution-service/internal/application/errs"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

type Server struct {
	app     *application.Collection
	metrics http.Handler
}

func NewServer(app *application.Collection, metrics http.Handler) *Server {
	return &Server{app: app, metrics: metrics}
}

func (s *Server) RegisterRoutes(router fiber.Router) {
	router.Get("/executions/:osId", s.GetExecution)
	router.Get("/health", s.Health)
	if s.metrics != nil {
		router.Get("/metrics", adaptor.HTTPHandler(s.metrics))
	}
}

func (s *Server) GetExecution(c *fiber.Ctx) error {
	osID := c.Params("osId")
	if osID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "osId is required"})
	}

	resp, err := s.app.GetExecution.Query(c.UserContext(), osID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "execution not found"})
		}
		slog.Error("err getting execution", "osId", osID, "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (s *Server) Health(c *fiber.Ctx) error {
	if err := s.app.HealthCheck.Query(c.UserContext()); err != nil {
		slog.Error("health check failed", "err", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.Status(fiber.StatusOK).JSON(dto.HealthResponse{Status: "ok"})
}
