package handler

import (
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"

	"github.com/FACorreiaa/campusnest-api/internal/domain/auth/presenter"
	"github.com/FACorreiaa/campusnest-api/internal/domain/auth/service"
	"github.com/FACorreiaa/campusnest-api/pkg/interceptors"
	"github.com/FACorreiaa/campusnest-api/pkg/respond"
)

type AuthHandler struct {
	service *service.AuthService
	logger  *slog.Logger
}

func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, logger: logger}
}

// ConfigureOAuth registers goth providers and the cookie store gothic keeps
// OAuth state in. Provider names come from the {provider} route parameter.
func ConfigureOAuth(sessionSecret string, secure bool, providers ...goth.Provider) {
	store := sessions.NewCookieStore([]byte(sessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	gothic.Store = store
	gothic.GetProviderName = func(r *http.Request) (string, error) {
		if p := chi.URLParam(r, "provider"); p != "" {
			return p, nil
		}
		if p := r.URL.Query().Get("provider"); p != "" {
			return p, nil
		}
		return "", errors.New("no oauth provider in request")
	}
	goth.UseProviders(providers...)
}

// Routes mounts the auth endpoints. requireAuth guards the account routes.
func (h *AuthHandler) Routes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/refresh", h.RefreshToken)
	r.Post("/logout", h.Logout)
	r.Post("/google", h.GoogleToken)
	r.Get("/{provider}/begin", h.BeginOAuth)
	r.Get("/{provider}/callback", h.OAuthCallback)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/me", h.Me)
		r.Put("/me", h.UpdateMe)
		r.Put("/me/password", h.ChangePassword)
	})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req presenter.RegisterRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.DecodeError(w, err)
		return
	}

	result, err := h.service.RegisterUser(r.Context(), service.RegisterParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		UserAgent: r.UserAgent(),
		ClientIP:  clientIP(r),
	})
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, presenter.ToAuthResponse(result.User, result.Tokens))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req presenter.LoginRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.DecodeError(w, err)
		return
	}

	result, err := h.service.Login(r.Context(), service.LoginParams{
		Email:     req.Email,
		Password:  req.Password,
		UserAgent: r.UserAgent(),
		ClientIP:  clientIP(r),
	})
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, presenter.ToAuthResponse(result.User, result.Tokens))
}

func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req presenter.RefreshTokenRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.DecodeError(w, err)
		return
	}

	tokens, err := h.service.RefreshTokens(r.Context(), service.RefreshTokenParams{
		RefreshToken: req.RefreshToken,
		UserAgent:    r.UserAgent(),
		ClientIP:     clientIP(r),
	})
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, presenter.ToTokenResponse(tokens))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req presenter.RefreshTokenRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.DecodeError(w, err)
		return
	}
	if err := h.service.Logout(r.Context(), req.RefreshToken); err != nil {
		respond.FromError(w, err)
		return
	}
	respond.NoContent(w)
}

func (h *AuthHandler) GoogleToken(w http.ResponseWriter, r *http.Request) {
	var req presenter.GoogleTokenRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.DecodeError(w, err)
		return
	}

	result, err := h.service.SignInWithGoogle(r.Context(), service.OAuthSignInParams{
		AccessToken: req.AccessToken,
		UserAgent:   r.UserAgent(),
		ClientIP:    clientIP(r),
	})
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, presenter.ToAuthResponse(result.User, result.Tokens))
}

func (h *AuthHandler) BeginOAuth(w http.ResponseWriter, r *http.Request) {
	gothic.BeginAuthHandler(w, r)
}

func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	gothUser, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "oauth callback failed", slog.Any("error", err))
		respond.Error(w, http.StatusUnauthorized, "UNAUTHENTICATED", "oauth sign-in failed")
		return
	}

	result, err := h.service.SignInOAuthUser(r.Context(), service.FromGothUser(gothUser), r.UserAgent(), clientIP(r))
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, presenter.ToAuthResponse(result.User, result.Tokens))
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := interceptors.UserUUIDFromContext(r.Context())
	if err != nil {
		respond.FromError(w, err)
		return
	}
	user, err := h.service.GetCurrentUser(r.Context(), userID)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, presenter.ToUserResponse(user))
}

func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, err := interceptors.UserUUIDFromContext(r.Context())
	if err != nil {
		respond.FromError(w, err)
		return
	}
	var req presenter.UpdateMeRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.DecodeError(w, err)
		return
	}
	user, err := h.service.UpdateCurrentUser(r.Context(), userID, req.FirstName, req.LastName)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, presenter.ToUserResponse(user))
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := interceptors.GetUserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
		return
	}
	var req presenter.ChangePasswordRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.DecodeError(w, err)
		return
	}
	if err := h.service.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		respond.FromError(w, err)
		return
	}
	respond.NoContent(w)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		return "unknown"
	}
	return host
}
