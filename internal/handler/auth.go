package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/homerecords/beatstore/internal/config"
    "github.com/homerecords/beatstore/internal/utils"
)

// AuthHandler issues access tokens for the single admin account.  There is
// no user registration: the admin's email and bcrypt password hash come
// from configuration, and a successful login returns a short-lived JWT
// with the ADMIN role for the management endpoints.
type AuthHandler struct {
    Cfg config.Config
}

// loginRequest is the expected JSON body for POST /v1/auth/login.
type loginRequest struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}

// Login validates the admin credentials and returns a signed access token.
// Invalid credentials always yield the same 401 body so the response does
// not reveal whether the email or the password was wrong.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    req.Email = strings.TrimSpace(strings.ToLower(req.Email))
    if req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
    }

    if req.Email != strings.ToLower(h.Cfg.AdminEmail) || !utils.VerifyPassword(h.Cfg.AdminPasswordHash, req.Password) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }

    tok, err := utils.NewAccessToken(h.Cfg.JWTSecret, req.Email, "ADMIN", h.Cfg.AccessTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue token"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "access_token": tok.Token,
        "token_type":   "bearer",
        "expires_at":   tok.Exp,
    })
}
