package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/daromanx/qa-tracker/repository"
	"github.com/daromanx/qa-tracker/session"
	"github.com/gin-gonic/gin"
)

type UserController struct {
	store    repository.Store
	sessions *session.Manager
}

func NewUserController(store repository.Store, sessions *session.Manager) *UserController {
	return &UserController{
		store:    store,
		sessions: sessions,
	}
}

type SessionResponse struct {
	ID             uint      `json:"id"`
	DeviceInfo     string    `json:"device_info"`
	IPAddress      string    `json:"ip_address"`
	Location       string    `json:"location"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivity   time.Time `json:"last_activity"`
	ExpiresAt      time.Time `json:"expires_at"`
	CurrentSession bool      `json:"current_session"`
}

func notAuthenticated(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"status":  http.StatusUnauthorized,
		"message": "Not authenticated",
		"error":   "Account not found in context",
	})
}

func (uc *UserController) GetCurrentUser(c *gin.Context) {
	accountID := c.GetUint("accountID")
	if accountID == 0 {
		notAuthenticated(c)
		return
	}

	account, err := uc.store.AccountByID(c.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"status":  http.StatusNotFound,
				"message": "Account not found",
				"error":   "Account does not exist",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  http.StatusInternalServerError,
			"message": "Failed to fetch account",
			"error":   "Database error",
		})
		return
	}

	roles := make([]string, 0, len(account.Roles))
	for _, r := range account.Roles {
		roles = append(roles, r.Name)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  http.StatusOK,
		"message": "Account details retrieved",
		"data": gin.H{
			"user": gin.H{
				"id":         account.ID,
				"email":      account.Email,
				"nick":       account.Nick,
				"slug":       account.Slug,
				"language":   account.Language,
				"time_zone":  account.TimeZone,
				"roles":      roles,
				"created_at": account.CreatedAt,
				"last_login": account.LastLogin,
			},
		},
	})
}

func (uc *UserController) GetActiveSessions(c *gin.Context) {
	accountID := c.GetUint("accountID")
	if accountID == 0 {
		notAuthenticated(c)
		return
	}

	currentSessionID := c.GetUint("sessionID")

	sessions, err := uc.sessions.Active(c.Request.Context(), accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  http.StatusInternalServerError,
			"message": "Failed to fetch sessions",
			"error":   "Database error",
		})
		return
	}

	sessionResponses := make([]SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		sessionResponses = append(sessionResponses, SessionResponse{
			ID:             s.ID,
			DeviceInfo:     s.DeviceInfo,
			IPAddress:      s.IPAddress,
			Location:       s.Location,
			CreatedAt:      s.CreatedAt,
			LastActivity:   s.LastActivity,
			ExpiresAt:      s.ExpiresAt,
			CurrentSession: s.ID == currentSessionID,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  http.StatusOK,
		"message": "Active sessions retrieved successfully",
		"data": gin.H{
			"sessions":              sessionResponses,
			"total_active_sessions": len(sessionResponses),
		},
	})
}
