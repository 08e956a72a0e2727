package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/devmate-kr/devmate-api/internal/service"
	"github.com/devmate-kr/devmate-api/internal/utils"
)

// UserHandler serves user profile, history, and competency analysis endpoints.
type UserHandler struct {
	users    service.UserService
	analysis service.AnalysisService
	logger   zerolog.Logger
}

// NewUserHandler builds a user handler instance.
func NewUserHandler(users service.UserService, analysis service.AnalysisService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		users:    users,
		analysis: analysis,
		logger:   logger.With().Str("component", "user_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *UserHandler) Register(router fiber.Router) {
	router.Get("/:id", h.profile)
	router.Get("/:id/history", h.history)
	router.Get("/:id/analysis", h.analyze)
}

func (h *UserHandler) profile(c *fiber.Ctx) error {
	userID, err := parseParamUint(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	user, err := h.users.GetProfile(c.UserContext(), userID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "user retrieved", user)
}

func (h *UserHandler) history(c *fiber.Ctx) error {
	userID, err := parseParamUint(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	limit := parseQueryInt(c, "limit", 0)

	records, err := h.users.GetHistory(c.UserContext(), userID, limit)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "history retrieved", records)
}

func (h *UserHandler) analyze(c *fiber.Ctx) error {
	userID, err := parseParamUint(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	analysis, err := h.analysis.AnalyzeCompetency(c.UserContext(), userID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "analysis completed", analysis)
}

func (h *UserHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNoAnsweredHistory):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrAnalysisUnavailable):
		return utils.SendError(c, fiber.StatusBadGateway, err.Error())
	default:
		h.logger.Error().Err(err).Msg("user request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
