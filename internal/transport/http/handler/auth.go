package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"anonchat/internal/app"
	"anonchat/internal/model"
	"anonchat/internal/transport/http/middleware"
	"anonchat/internal/transport/http/response"
	"anonchat/internal/validation"
)

const (
	msgEmailSent         = "Email sent successfully"
	msgUserCreated       = "User created successfully"
	msgErrorCreatingUser = "Error creating user"
)

type AuthHandler struct {
	authService *app.AuthService
}

type SignUpRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type VerifyCodeRequest struct {
	Username string `json:"username"`
	Code     string `json:"code"`
}

type SignInRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func NewAuthHandler(authService *app.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// SignUp answers rejections with 200 and success=false; only unexpected
// failures produce a 500.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusInternalServerError, msgErrorCreatingUser)
		return
	}

	result, err := h.authService.SignUp(c.Request.Context(), app.SignUpInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrUsernameExists):
			response.Error(c, http.StatusOK, "Username already exists")
		case errors.Is(err, app.ErrEmailExists):
			response.Error(c, http.StatusOK, "Email already exists")
		default:
			slog.ErrorContext(c.Request.Context(), "sign up failed", "error", err)
			response.Error(c, http.StatusInternalServerError, msgErrorCreatingUser)
		}
		return
	}

	if result.EmailSent {
		response.OK(c, http.StatusCreated, msgEmailSent, nil)
		return
	}
	response.OK(c, http.StatusCreated, msgUserCreated, nil)
}

func (h *AuthHandler) VerifyCode(c *gin.Context) {
	var req VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := validation.Struct(validation.VerifyCode{Username: req.Username, Code: req.Code}); err != nil {
		response.Invalid(c, http.StatusBadRequest, err)
		return
	}

	if err := h.authService.VerifyCode(c.Request.Context(), req.Username, req.Code); err != nil {
		switch {
		case errors.Is(err, app.ErrUserNotFound):
			response.Error(c, http.StatusNotFound, "User not found")
		case errors.Is(err, app.ErrAlreadyVerified):
			response.Error(c, http.StatusBadRequest, "Account is already verified")
		case errors.Is(err, app.ErrCodeExpired):
			response.Error(c, http.StatusBadRequest, "Verification code has expired. Please sign up again to get a new code")
		case errors.Is(err, app.ErrCodeInvalid):
			response.Error(c, http.StatusBadRequest, "Incorrect verification code")
		default:
			slog.ErrorContext(c.Request.Context(), "verify code failed", "error", err)
			response.Error(c, http.StatusInternalServerError, "Error verifying user")
		}
		return
	}

	response.OK(c, http.StatusOK, "Account verified successfully", nil)
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := validation.Struct(validation.SignIn{Identifier: req.Identifier, Password: req.Password}); err != nil {
		response.Invalid(c, http.StatusBadRequest, err)
		return
	}

	result, err := h.authService.SignIn(c.Request.Context(), app.SignInInput{
		Identifier: req.Identifier,
		Password:   req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidCredential):
			response.Error(c, http.StatusUnauthorized, "Incorrect email or password")
		case errors.Is(err, app.ErrNotVerified):
			response.Error(c, http.StatusForbidden, "Please verify your account before signing in")
		default:
			slog.ErrorContext(c.Request.Context(), "sign in failed", "error", err)
			response.Error(c, http.StatusInternalServerError, "Error signing in")
		}
		return
	}

	response.OK(c, http.StatusOK, "Signed in successfully", gin.H{
		"token": result.Token,
		"user":  userView(result.User),
	})
}

func (h *AuthHandler) CheckUsernameUnique(c *gin.Context) {
	username := c.Query("username")
	if err := validation.Username(username); err != nil {
		response.Invalid(c, http.StatusBadRequest, err)
		return
	}

	available, err := h.authService.IsUsernameAvailable(c.Request.Context(), username)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "check username failed", "error", err)
		response.Error(c, http.StatusInternalServerError, "Error checking username")
		return
	}
	if !available {
		response.Error(c, http.StatusOK, "Username is already taken")
		return
	}
	response.OK(c, http.StatusOK, "Username is unique", nil)
}

func (h *AuthHandler) Me(c *gin.Context) {
	username, ok := middleware.Username(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	user, err := h.authService.GetUserByUsername(c.Request.Context(), username)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Error fetching user")
		return
	}
	if user == nil {
		response.Error(c, http.StatusUnauthorized, "User not found")
		return
	}

	response.OK(c, http.StatusOK, "ok", userView(user))
}

func userView(user *model.User) gin.H {
	return gin.H{
		"id":                  user.Identity(),
		"username":            user.Username,
		"email":               user.Email,
		"isVerified":          user.IsVerified,
		"isAcceptingMessages": user.IsAcceptingMessages,
	}
}
