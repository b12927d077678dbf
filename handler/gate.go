package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"tasublog/route"
	"tasublog/view"
)

const (
	cookieName  = "Authorization"
	gateSubject = "admin"
	gateTTL     = 24 * time.Hour * 7
)

// Unlock opens the admin gate. The cookie it sets is what the server
// checks before any mutation; the gate page itself only hides the panel.
func (h *Handler) Unlock(c echo.Context) error {
	password := c.FormValue("password")
	if password == "" || bcrypt.CompareHashAndPassword(h.PasswordHash, []byte(password)) != nil {
		h.Log.Info("admin gate rejected", zap.String("ip", c.RealIP()))
		page := view.Render(route.Route{View: route.Admin}, h.context(c, route.AdminPath, func(vc *view.Context) {
			vc.GateError = "Incorrect password"
		}))
		return c.Render(http.StatusOK, page.Name(), page)
	}

	cookie, err := authorizationCookie(h.JWTSecret, h.Environment != "dev")
	if err != nil {
		return err
	}
	c.SetCookie(cookie)
	return c.Redirect(http.StatusFound, route.AdminPath)
}

func (h *Handler) Lock(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Now().Add(-1 * time.Second),
		MaxAge:   -1,
	})
	return c.Redirect(http.StatusFound, route.AdminPath)
}

func authorizationCookie(secret string, secure bool) (*http.Cookie, error) {
	if secret == "" {
		return nil, errors.New("missing secret")
	}
	exp := time.Now().Add(gateTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   gateSubject,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     cookieName,
		Value:    signed,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

func (h *Handler) isUnlocked(c echo.Context) bool {
	if h.JWTSecret == "" {
		return false
	}
	cookie, err := c.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	token, err := jwt.ParseWithClaims(cookie.Value, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(h.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return false
	}
	sub, err := token.Claims.GetSubject()
	return err == nil && sub == gateSubject
}
