package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nxquan/prepmate/internal/dto"
	"github.com/nxquan/prepmate/internal/service"
)

const userIDKey = "user_id"

// Auth validates the bearer token and stores the owning user id on the
// request context. Every route mounted behind it can rely on CurrentUserID.
func Auth(authService service.AuthService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Missing or malformed Authorization header"})
			return
		}

		userID, err := authService.ParseToken(token)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Invalid or expired token"})
			return
		}

		ctx.Set(userIDKey, userID)
		ctx.Next()
	}
}

// CurrentUserID returns the authenticated user id set by Auth.
func CurrentUserID(ctx *gin.Context) uint {
	return ctx.GetUint(userIDKey)
}

// SetCurrentUserID exists for handler tests that bypass the Auth middleware.
func SetCurrentUserID(ctx *gin.Context, userID uint) {
	ctx.Set(userIDKey, userID)
}
