package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/covline/covline/internal/emailvalidation"
)

type startEmailValidationRequest struct {
	Email       string `json:"email"`
	CallbackURL string `json:"callback_url"`
	PartnerCode string `json:"partner_code"`
	PolicyID    string `json:"policy_id"`
	QuoteID     string `json:"quote_id"`
}

func (s *Server) HandleStartEmailValidation(c *gin.Context) {
	var req startEmailValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		AbortWithError(c, newValidationError("email", "required", "email is required"))
		return
	}

	err := s.emailValidationSvc.Start(c.Request.Context(), emailvalidation.StartCommand{
		Email:       strings.TrimSpace(req.Email),
		CallbackURL: strings.TrimSpace(req.CallbackURL),
		PartnerCode: strings.TrimSpace(req.PartnerCode),
		PolicyID:    strings.TrimSpace(req.PolicyID),
		QuoteID:     strings.TrimSpace(req.QuoteID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusAccepted)
}

type resolveEmailValidationRequest struct {
	Token string `json:"token"`
}

func (s *Server) HandleResolveEmailValidation(c *gin.Context) {
	var req resolveEmailValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resolution, err := s.emailValidationSvc.Resolve(c.Request.Context(), req.Token)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"callback_url": resolution.CallbackURL})
}
