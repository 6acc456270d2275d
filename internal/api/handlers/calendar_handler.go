package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/publora/publora/internal/models"
	"github.com/publora/publora/internal/service"
	"github.com/publora/publora/internal/transfer"
)

type CalendarHandler struct {
	s service.CalendarService
}

func NewCalendarHandler(service service.CalendarService) *CalendarHandler {
	return &CalendarHandler{s: service}
}

func (h *CalendarHandler) GenerateCalendar(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.CalendarGeneration
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	generated, err := h.s.Generate(c.Context(), userID, &req)
	if err != nil {
		return ErrorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(generated)
}

func (h *CalendarHandler) GenerateEntryContent(c *fiber.Ctx) error {
	userID := GetUserID(c)
	entryID := c.QueryInt("id", 0)

	entry, err := h.s.GenerateEntryContent(c.Context(), userID, int64(entryID))
	if err != nil {
		return ErrorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(entry)
}

func (h *CalendarHandler) SetEntryStatus(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.EntryStatusUpdate
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	entry, err := h.s.SetEntryStatus(c.Context(), userID, req.EntryID, models.EntryStatus(req.Status))
	if err != nil {
		return ErrorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(entry)
}

func (h *CalendarHandler) ListCalendars(c *fiber.Ctx) error {
	userID := GetUserID(c)
	calendarID := c.QueryInt("id", 0)

	if calendarID != 0 {
		calendar, err := h.s.CalendarInfo(c.Context(), int64(calendarID), userID)
		if err != nil {
			return ErrorResponse(c, err)
		}

		return c.Status(fiber.StatusOK).JSON(calendar)
	}

	calendars, err := h.s.List(c.Context(), userID)
	if err != nil {
		return ErrorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(calendars)
}

func (h *CalendarHandler) CalendarWeeks(c *fiber.Ctx) error {
	userID := GetUserID(c)
	calendarID := c.QueryInt("id", 0)

	weeks, err := h.s.Weeks(c.Context(), int64(calendarID), userID)
	if err != nil {
		return ErrorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(weeks)
}

func (h *CalendarHandler) RemoveCalendar(c *fiber.Ctx) error {
	userID := GetUserID(c)
	calendarID := c.QueryInt("id", 0)

	err := h.s.Remove(c.Context(), userID, int64(calendarID))
	if err != nil {
		return ErrorResponse(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}
