package v1

import (
	"time"

	"taskhub/internal/api/response"
	"taskhub/internal/services"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	users *services.UserService
	auth  *services.AuthService
}

type registerRequest struct {
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Password       string `json:"password"`
	InvitationCode string `json:"invitation_code"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenReply struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *profile  `json:"user"`
}

func RegisterAuthRoutes(group *gin.RouterGroup, users *services.UserService, auth *services.AuthService) {
	h := &AuthHandler{users: users, auth: auth}
	group.POST("/auth/register", h.Register)
	group.POST("/auth/login", h.Login)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bind(c, &req) {
		return
	}
	user, err := h.users.Register(c.Request.Context(), services.Registration{
		Email:          req.Email,
		Phone:          req.Phone,
		Password:       req.Password,
		InvitationCode: req.InvitationCode,
		IpAddress:      c.ClientIP(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	token, expires, err := h.auth.IssueToken(user.UserId())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, tokenReply{Token: token, ExpiresAt: expires, User: newProfile(user)})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bind(c, &req) {
		return
	}
	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		response.Error(c, err)
		return
	}
	token, expires, err := h.auth.IssueToken(user.UserId())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, tokenReply{Token: token, ExpiresAt: expires, User: newProfile(user)})
}
