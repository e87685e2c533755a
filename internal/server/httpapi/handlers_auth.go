package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/myrecipe/internal/server/auth"
	"github.com/dmitrijs2005/myrecipe/internal/server/models"
	"github.com/gin-gonic/gin"
)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenPairResponse struct {
	TokenType              string `json:"tokenType"`
	AccessToken            string `json:"accessToken"`
	RefreshToken           string `json:"refreshToken"`
	AccessExpiresInSeconds int64  `json:"accessExpiresInSeconds"`
}

type userResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email,omitempty"`
	Nickname string `json:"nickname"`
	Handle   string `json:"handle"`
}

type authResponse struct {
	User   userResponse      `json:"user"`
	Tokens tokenPairResponse `json:"tokens"`
}

func toTokenPairResponse(pair *auth.TokenPair) tokenPairResponse {
	return tokenPairResponse{
		TokenType:              pair.TokenType,
		AccessToken:            pair.AccessToken,
		RefreshToken:           pair.RefreshToken,
		AccessExpiresInSeconds: pair.AccessExpiresInSeconds,
	}
}

func (s *HTTPServer) handleSignup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, invalidPayload(err))
		return
	}

	user, pair, err := s.auth.Signup(c.Request.Context(), req.Email, req.Password, req.Nickname)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, authResponse{
		User:   userResponse{ID: user.ID, Nickname: user.Nickname, Handle: user.Handle},
		Tokens: toTokenPairResponse(pair),
	})
}

func (s *HTTPServer) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, invalidPayload(err))
		return
	}

	user, pair, err := s.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, authResponse{
		User:   toUserResponse(user),
		Tokens: toTokenPairResponse(pair),
	})
}

func toUserResponse(user *models.User) userResponse {
	return userResponse{
		ID:       user.ID,
		Email:    user.Email,
		Nickname: user.Nickname,
		Handle:   user.Handle,
	}
}

func (s *HTTPServer) handleRefresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, invalidPayload(err))
		return
	}

	pair, err := s.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tokens": toTokenPairResponse(pair)})
}

func (s *HTTPServer) handleLogout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, invalidPayload(err))
		return
	}

	if err := s.auth.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		s.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
