package middlewares

import (
	"fieldserve-backend/database"
	"fieldserve-backend/models"

	"github.com/gofiber/fiber/v2"
)

// RequireRole restricts a route to users holding one of the given roles.
// Must run after IsAuthenticatedHeader() so userID is populated.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals("userID").(string)
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "auth context missing")
		}

		var user models.User
		if err := database.DB.Where("id = ?", userID).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "unknown user")
		}
		for _, r := range roles {
			if user.Role == r {
				c.Locals("role", user.Role)
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "insufficient role")
	}
}
