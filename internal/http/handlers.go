package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nutrilabel/auth-service/internal/domain"
	"github.com/nutrilabel/auth-service/internal/log"
	"github.com/nutrilabel/auth-service/internal/metrics"
	"github.com/nutrilabel/auth-service/internal/oauth"
	"github.com/nutrilabel/auth-service/internal/queue"
	"github.com/nutrilabel/auth-service/internal/repo"
	"github.com/nutrilabel/auth-service/internal/security"
)

type Handler struct {
	Store     repo.UserRepository
	Events    queue.Publisher
	Exchange  string
	BaseURL   string
	GoogleAud string
	ResetTTL  time.Duration
}

func NewHandler(store repo.UserRepository, pub queue.Publisher, exchange, baseURL, googleAud string, resetTTL time.Duration) *Handler {
	return &Handler{
		Store:     store,
		Events:    pub,
		Exchange:  exchange,
		BaseURL:   baseURL,
		GoogleAud: googleAud,
		ResetTTL:  resetTTL,
	}
}

// response is the envelope every auth endpoint returns. Domain failures
// (duplicate user, bad credentials, bad token) come back as 200 with
// success=false; only transport/storage trouble produces a non-2xx.
type response struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	User    *userPayload `json:"user,omitempty"`
}

type userPayload struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
}

func fail(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, response{Success: false, Message: msg})
}

func serverError(c *gin.Context, op string, err error) {
	log.WithDD(c.Request.Context(), log.L()).Error(op, zap.Error(err))
	c.JSON(http.StatusInternalServerError, response{Success: false, Message: "Server error"})
}

type registerReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register godoc
// @Summary Register with username and password
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body registerReq true "register"
// @Success 200 {object} response
// @Router /api/register [post]
func (h *Handler) Register(c *gin.Context) {
	var in registerReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, response{Success: false, Message: "invalid json"})
		return
	}
	username := strings.TrimSpace(in.Username)
	if username == "" || len(in.Password) < security.MinPasswordLen {
		fail(c, "Username and a password of at least 6 characters are required")
		return
	}

	// existence check first; the unique index catches the benign race
	// between check and insert
	existing, err := h.Store.FindByUsername(c.Request.Context(), username)
	if err != nil {
		serverError(c, "register: lookup", err)
		return
	}
	if existing != nil {
		fail(c, "Username already exists")
		return
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		serverError(c, "register: hash", err)
		return
	}
	u := &domain.User{Username: username, PasswordHash: hash}
	if err := h.Store.CreateUser(c.Request.Context(), u); err != nil {
		if err == domain.ErrDuplicateUser {
			fail(c, "Username already exists")
			return
		}
		serverError(c, "register: insert", err)
		return
	}

	go h.Events.Publish(c.Request.Context(), h.Exchange, queue.KeyUserRegistered,
		queue.UserRegistered{UserID: u.ID, Username: u.Username}, requestID(c))

	c.JSON(http.StatusOK, response{Success: true, Message: "User registered successfully"})
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login godoc
// @Summary Login with username and password
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body loginReq true "login"
// @Success 200 {object} response
// @Router /api/login [post]
func (h *Handler) Login(c *gin.Context) {
	var in loginReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, response{Success: false, Message: "invalid json"})
		return
	}

	u, err := h.Store.FindByUsername(c.Request.Context(), strings.TrimSpace(in.Username))
	if err != nil {
		serverError(c, "login: lookup", err)
		return
	}
	if u == nil {
		fail(c, "Invalid username")
		return
	}
	if !security.CheckPassword(u.PasswordHash, in.Password) {
		fail(c, "Incorrect password")
		return
	}

	// no session token is minted: the JSON body itself is the proof of
	// authentication in this design
	c.JSON(http.StatusOK, response{
		Success: true,
		Message: "Login successful",
		User:    &userPayload{ID: u.ID, Username: u.Username},
	})
}

type googleLoginReq struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	GoogleID   string `json:"googleId"`
	Picture    string `json:"picture"`
	Credential string `json:"credential"` // optional raw Google ID token
}

// GoogleLogin godoc
// @Summary Google sign-in (idempotent upsert)
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body googleLoginReq true "google profile"
// @Success 200 {object} response
// @Router /api/google-login [post]
func (h *Handler) GoogleLogin(c *gin.Context) {
	var in googleLoginReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, response{Success: false, Message: "invalid json"})
		return
	}

	// prefer the verified ID-token claims over the posted profile
	if in.Credential != "" {
		gu, err := oauth.VerifyIDToken(in.Credential, h.GoogleAud)
		if err != nil {
			fail(c, "Invalid Google credential")
			return
		}
		in.Email, in.Name, in.GoogleID, in.Picture = gu.Email, gu.Name, gu.Sub, gu.Picture
	}
	if in.Email == "" || in.GoogleID == "" {
		fail(c, "Email and googleId are required")
		return
	}

	u, err := h.Store.FindByGoogle(c.Request.Context(), in.Email, in.GoogleID)
	if err != nil {
		serverError(c, "google-login: lookup", err)
		return
	}
	if u == nil {
		u = &domain.User{
			Username:       in.Email,
			PasswordHash:   security.GooglePassword,
			GoogleID:       &in.GoogleID,
			FullName:       in.Name,
			ProfilePicture: in.Picture,
		}
		if err := h.Store.CreateUser(c.Request.Context(), u); err != nil {
			if err == domain.ErrDuplicateUser {
				// lost the race to an identical concurrent login
				if u, err = h.Store.FindByGoogle(c.Request.Context(), in.Email, in.GoogleID); err != nil || u == nil {
					serverError(c, "google-login: re-read", err)
					return
				}
			} else {
				serverError(c, "google-login: insert", err)
				return
			}
		}
	}

	name := u.FullName
	if name == "" {
		name = in.Name
	}
	c.JSON(http.StatusOK, response{
		Success: true,
		Message: "Google login successful",
		User:    &userPayload{ID: u.ID, Username: u.Username, Name: name},
	})
}

type forgotReq struct {
	Email string `json:"email"`
}

// ForgotPassword godoc
// @Summary Issue a password-reset token and mail the link
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body forgotReq true "email"
// @Success 200 {object} response
// @Router /api/forgot-password [post]
func (h *Handler) ForgotPassword(c *gin.Context) {
	var in forgotReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, response{Success: false, Message: "invalid json"})
		return
	}
	email := strings.TrimSpace(in.Email)

	token, err := security.NewResetToken()
	if err != nil {
		serverError(c, "forgot-password: token", err)
		return
	}
	expiry := time.Now().Add(h.ResetTTL)

	if err := h.Store.SetResetToken(c.Request.Context(), email, token, expiry); err != nil {
		if err == domain.ErrEmailNotFound {
			fail(c, "Email not found")
			return
		}
		serverError(c, "forgot-password: persist", err)
		return
	}

	link := h.BaseURL + "/reset-password?token=" + token

	// published synchronously: a dead broker must surface to the caller.
	// The token stays persisted either way (no rollback).
	err = h.Events.Publish(c.Request.Context(), h.Exchange, queue.KeyPasswordReset,
		queue.PasswordResetRequested{Email: email, Link: link}, requestID(c))
	if err != nil {
		metrics.MailsPublished.WithLabelValues("error").Inc()
		serverError(c, "forgot-password: publish", err)
		return
	}
	metrics.MailsPublished.WithLabelValues("ok").Inc()

	c.JSON(http.StatusOK, response{Success: true, Message: "Password reset email sent"})
}

type resetReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// ResetPassword godoc
// @Summary Redeem a reset token and set a new password
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body resetReq true "token and new password"
// @Success 200 {object} response
// @Router /api/reset-password [post]
func (h *Handler) ResetPassword(c *gin.Context) {
	var in resetReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, response{Success: false, Message: "invalid json"})
		return
	}
	if in.Token == "" || len(in.NewPassword) < security.MinPasswordLen {
		fail(c, "A token and a password of at least 6 characters are required")
		return
	}

	hash, err := security.HashPassword(in.NewPassword)
	if err != nil {
		serverError(c, "reset-password: hash", err)
		return
	}

	if _, err := h.Store.RedeemResetToken(c.Request.Context(), in.Token, hash); err != nil {
		if err == domain.ErrInvalidOrExpiredToken {
			fail(c, "Invalid or expired token")
			return
		}
		serverError(c, "reset-password: redeem", err)
		return
	}

	c.JSON(http.StatusOK, response{Success: true, Message: "Password reset successful"})
}

// Root is a plain-text liveness probe.
func (h *Handler) Root(c *gin.Context) {
	c.String(http.StatusOK, "Backend is running")
}

func (h *Handler) Healthz(c *gin.Context) {
	if err := h.Store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
