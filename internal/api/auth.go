package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Spok95/factory-mix/internal/auth"
	"github.com/Spok95/factory-mix/internal/domain/users"
)

type loginRequest struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

type loginResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      users.User `json:"user"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if !h.bind(c, &req) {
		return
	}
	u, token, exp, err := h.issuer.Login(c.Request.Context(), h.users, req.UserID, req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.log.Info("login", "user_id", u.UserID, "role", string(u.Role))
	c.JSON(http.StatusOK, loginResponse{Token: token, ExpiresAt: exp, User: *u})
}

// verify answers with the stored user, so a token of a removed user stops working here.
func (h *Handler) verify(c *gin.Context) {
	claims, ok := auth.FromContext(c.Request.Context())
	if !ok {
		h.fail(c, auth.ErrInvalidToken)
		return
	}
	u, err := h.users.GetByID(c.Request.Context(), claims.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if u == nil {
		h.fail(c, auth.ErrInvalidToken)
		return
	}
	c.JSON(http.StatusOK, u)
}
