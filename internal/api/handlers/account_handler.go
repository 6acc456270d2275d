package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/publora/publora/internal/models"
	"github.com/publora/publora/internal/repository"
)

type AccountHandler struct {
	sa repository.SocialAccountRepository
}

func NewAccountHandler(sa repository.SocialAccountRepository) *AccountHandler {
	return &AccountHandler{sa: sa}
}

type accountWithDestinations struct {
	*models.SocialAccount
	Destinations []*models.Destination `json:"destinations"`
}

// ListAccounts returns the user's connected accounts with their publish
// destinations. Read-only; connecting accounts happens elsewhere.
func (h *AccountHandler) ListAccounts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	accounts, err := h.sa.GetByUserID(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to list accounts",
		})
	}

	result := make([]accountWithDestinations, 0, len(accounts))
	for _, acc := range accounts {
		destinations, err := h.sa.ListDestinations(c.Context(), acc.ID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unable to list destinations",
			})
		}
		result = append(result, accountWithDestinations{SocialAccount: acc, Destinations: destinations})
	}

	return c.Status(fiber.StatusOK).JSON(result)
}
