package handler

import (
	"fmt"
	"net/http"
	"strings"

	"anoa.com/jobapp/internal/modules/user/dto"
	"anoa.com/jobapp/internal/modules/user/service"
	"anoa.com/jobapp/pkg/apperror"
	"anoa.com/jobapp/pkg/response"
	"anoa.com/jobapp/pkg/validator"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService       service.AuthService
	credentialService service.CredentialService
}

func NewAuthHandler(authService service.AuthService, credentialService service.CredentialService) *AuthHandler {
	return &AuthHandler{
		authService:       authService,
		credentialService: credentialService,
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input dto.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	res, err := h.authService.Login(c.Request.Context(), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input dto.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	res, err := h.authService.Register(c.Request.Context(), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

// ForgotPassword accepts the address either as a query parameter or a JSON body.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var input dto.ForgotPasswordInput
	bind := c.ShouldBind
	if c.Query("email") != "" {
		bind = c.ShouldBindQuery
	}
	if err := bind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	if err := h.credentialService.ResetPassword(c.Request.Context(), input.Email); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "a temporary password has been sent to your email"})
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	identity, err := response.GetIdentity(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input dto.ChangePasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	if strings.TrimSpace(input.Username) != identity.Username {
		response.ResponseError(c, fmt.Errorf("you can only change your own password: %w", apperror.ErrForbidden))
		return
	}

	if err := h.credentialService.ChangePassword(c.Request.Context(), input); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password changed successfully"})
}
