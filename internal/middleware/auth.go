package middleware

import (
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"qota_server/internal/models"
)

// ContextUserKey is where RequireAuth stores the resolved *models.User.
const ContextUserKey = "currentUser"

// RequireAuth returns a middleware that verifies Firebase ID tokens from
// the Authorization header and resolves the local user row, creating it
// on first sight.
func RequireAuth(authClient *auth.Client, db *gorm.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if authClient == nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "auth not configured")
			}

			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			token, err := authClient.VerifyIDToken(c.Request().Context(), strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			email, _ := token.Claims["email"].(string)
			name, _ := token.Claims["name"].(string)

			var user models.User
			err = db.Where("firebase_uid = ?", token.UID).First(&user).Error
			if err == gorm.ErrRecordNotFound {
				user = models.User{
					FirebaseUID: token.UID,
					Email:       email,
					Name:        name,
				}
				if err := db.Create(&user).Error; err != nil {
					return echo.NewHTTPError(http.StatusInternalServerError, "failed to provision user")
				}
			} else if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "failed to load user")
			}

			c.Set(ContextUserKey, &user)
			return next(c)
		}
	}
}

// CurrentUser retrieves the authenticated user placed by RequireAuth.
func CurrentUser(c echo.Context) *models.User {
	if user, ok := c.Get(ContextUserKey).(*models.User); ok {
		return user
	}
	return nil
}
