package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	authapp "github.com/Apurer/go-order-console/internal/domains/auth/application"
)

type registrationCheck struct {
	Password     string `json:"password"`
	Confirmation string `json:"confirmPassword"`
}

// LoginNotice answers 204 when the query carries no flag worth a banner.
func (s *Server) LoginNotice(c *gin.Context) {
	notice, ok := authapp.LoginNotice(c.Request.URL.Query())
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, notice)
}

func (s *Server) RegistrationNotice(c *gin.Context) {
	notice, ok := authapp.RegistrationNotice(c.Request.URL.Query())
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, notice)
}

func (s *Server) CheckRegistration(c *gin.Context) {
	var req registrationCheck
	if err := c.ShouldBindJSON(&req); err != nil {
		s.responder.BadRequest(c, err.Error())
		return
	}
	if err := authapp.CheckRegistration(req.Password, req.Confirmation); err != nil {
		s.responder.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
