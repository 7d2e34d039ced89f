package authz

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/outpasshq/notify/internal/models"
)

// JWTMiddleware authenticates the bearer token and attaches the resulting
// session to the request context. Tokens carry sub, username, name, phone and
// role claims; an unknown role degrades to student.
func JWTMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				// Websocket clients cannot set headers; accept ?token= there.
				auth = "Bearer " + r.URL.Query().Get("token")
			}
			parts := strings.SplitN(auth, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok || !claims.VerifyExpiresAt(time.Now().Unix(), true) {
				http.Error(w, "Token expired", http.StatusUnauthorized)
				return
			}

			session, ok := sessionFromClaims(claims)
			if !ok {
				http.Error(w, "Missing token claim", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

func sessionFromClaims(claims jwt.MapClaims) (models.Session, bool) {
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return models.Session{}, false
	}
	username, _ := claims["username"].(string)
	name, _ := claims["name"].(string)
	phone, _ := claims["phone"].(string)
	role, _ := claims["role"].(string)
	if username == "" {
		username = sub
	}
	return models.Session{
		UserID:   sub,
		Username: username,
		Name:     name,
		Phone:    phone,
		Role:     models.ParseRole(role),
	}, true
}
