package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/leadforgehq/outreach-backend/internal/services"
)

// Context keys set by the workspace auth middleware
const (
	ContextWorkspaceID = "workspace_id"
	ContextWorkspace   = "workspace"
)

// WorkspaceAuthMiddleware resolves the API key on each request to its
// owning workspace
type WorkspaceAuthMiddleware struct {
	apiKeyService *services.APIKeyService
}

// NewWorkspaceAuthMiddleware creates a new workspace auth middleware
func NewWorkspaceAuthMiddleware(apiKeyService *services.APIKeyService) *WorkspaceAuthMiddleware {
	return &WorkspaceAuthMiddleware{apiKeyService: apiKeyService}
}

// RequireWorkspace validates the API key and sets the workspace context
func (m *WorkspaceAuthMiddleware) RequireWorkspace() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Authorization header is required",
			})
			c.Abort()
			return
		}

		apiKey := strings.TrimPrefix(authHeader, "ApiKey ")
		if apiKey == authHeader || apiKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Authorization header must be of the form 'ApiKey <key>'",
			})
			c.Abort()
			return
		}

		workspace, err := m.apiKeyService.Validate(apiKey)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Invalid API key",
			})
			c.Abort()
			return
		}

		c.Set(ContextWorkspaceID, workspace.ID)
		c.Set(ContextWorkspace, workspace)

		c.Next()
	}
}

// WorkspaceID extracts the authenticated workspace ID from the context
func WorkspaceID(c *gin.Context) string {
	return c.GetString(ContextWorkspaceID)
}
