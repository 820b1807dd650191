package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/pdfchat-be/middleware"
	"github.com/tieubaoca/pdfchat-be/service"
	"github.com/tieubaoca/pdfchat-be/types"
)

type AccountHandler interface {
	HandleAuthCallback(c *gin.Context)
	HandleExport(c *gin.Context)
	HandleDeleteAccount(c *gin.Context)
}

type accountHandler struct {
	accounts *service.AccountService
}

func NewAccountHandler(accounts *service.AccountService) AccountHandler {
	return &accountHandler{
		accounts: accounts,
	}
}

// HandleAuthCallback creates the user record for the session identity on
// first sign-in and returns it.
func (h *accountHandler) HandleAuthCallback(c *gin.Context) {
	var email, name string
	if claims := middleware.Claims(c); claims != nil {
		email, name = claims.Email, claims.Name
	}
	user, err := h.accounts.EnsureUser(c.Request.Context(), middleware.UserID(c), email, name)
	if err != nil {
		writeError(c, err)
		return
	}
	writeData(c, http.StatusOK, user)
}

func (h *accountHandler) HandleExport(c *gin.Context) {
	export, err := h.accounts.Export(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="account-export.json"`)
	writeData(c, http.StatusOK, export)
}

func (h *accountHandler) HandleDeleteAccount(c *gin.Context) {
	if err := h.accounts.DeleteAccount(c.Request.Context(), middleware.UserID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status:  true,
		Message: "Account deleted",
	})
}
