package controller

import (
	"github.com/gofiber/fiber/v2"

	"fastpai-be/internal/dto"
	"fastpai-be/internal/pkg/serverutils"
	"fastpai-be/internal/service"
)

type SessionCounter interface {
	Count() int
}

type IAssistantController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
	Municipalities(ctx *fiber.Ctx) error
}

type assistantController struct {
	service  service.IAssistantService
	sessions SessionCounter
}

func NewAssistantController(service service.IAssistantService, sessions SessionCounter) IAssistantController {
	return &assistantController{service: service, sessions: sessions}
}

func (c *assistantController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Health)
	r.Get("/municipalities", c.Municipalities)
}

func (c *assistantController) Health(ctx *fiber.Ctx) error {
	documents, err := c.service.CountDocuments(ctx.UserContext())
	if err != nil {
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(serverutils.ErrorResponse(503, err.Error()))
	}
	return ctx.JSON(dto.HealthResponse{
		Status:    "ok",
		Documents: documents,
		Sessions:  c.sessions.Count(),
	})
}

func (c *assistantController) Municipalities(ctx *fiber.Ctx) error {
	res, err := c.service.Municipalities(ctx.UserContext())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(dto.MunicipalitiesResponse{Municipalities: res})
}
