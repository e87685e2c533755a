package httpapi

import (
	"errors"
	"strings"

	"github.com/dmitrijs2005/myrecipe/internal/common"
	"github.com/dmitrijs2005/myrecipe/internal/server/auth"
	"github.com/gin-gonic/gin"
)

// principalKey is the gin context key the middleware stores the caller's
// identity under.
const principalKey = "principal"

// Principal is the authenticated caller's identity, extracted from a valid
// access token.
type Principal struct {
	UserID string
	Role   string
}

// authenticate inspects the Authorization header on every request. A missing
// header, or one without the Bearer scheme, leaves the request anonymous and
// lets it continue; route groups decide whether anonymous is acceptable.
// A present Bearer token must be a valid access token, otherwise the request
// is rejected outright, even on public routes.
func (s *HTTPServer) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == header {
			c.Next()
			return
		}

		claims, err := s.tokens.Verify(tokenString)
		if err != nil {
			s.writeError(c, err)
			return
		}
		if !auth.IsAccessToken(claims) {
			s.writeError(c, common.Unauthorized(errors.New("token is not an access token")))
			return
		}

		c.Set(principalKey, &Principal{UserID: claims.Subject, Role: claims.Role})
		c.Next()
	}
}

// requireAuth rejects requests that did not authenticate.
func (s *HTTPServer) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := principalFrom(c); !ok {
			s.writeError(c, common.Unauthorized(errors.New("missing access token")))
			return
		}
		c.Next()
	}
}

func principalFrom(c *gin.Context) (*Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*Principal)
	return p, ok
}
