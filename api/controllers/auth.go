package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/auth"
	"github.com/angelmondragon/storefront/internal/sandbox"
	pkgAuth "github.com/angelmondragon/storefront/pkg/auth"
	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/types"
)

type loginPayload struct {
	Email    string `json:"email" validate:"required,sf_email"`
	Password string `json:"password" validate:"required"`
}

type registerPayload struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,sf_email"`
	Password string `json:"password" validate:"required"`
}

type forgotPasswordPayload struct {
	Email string `json:"email" validate:"required,sf_email"`
}

type resetPasswordPayload struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Message string     `json:"message"`
	User    *auth.User `json:"user"`
}

// AuthStatus reports whether the request carries a valid session.
func AuthStatus(store *sandbox.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := auth.State{IsLoggedIn: false}
		if user, ok := store.UserByID(middleware.UserIDFromContext(r.Context())); ok {
			state = auth.State{IsLoggedIn: true, User: publicUser(user)}
		}
		responses.WriteJSON(w, http.StatusOK, state)
	}
}

// AuthLogin verifies credentials and sets the session cookie.
func AuthLogin(store *sandbox.Store, cfg config.SandboxConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload loginPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		user, err := store.Authenticate(ctx, payload.Email, payload.Password)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		now := time.Now()
		token, err := pkgAuth.MintSessionToken(cfg, now, pkgAuth.SessionPayload{UserID: user.ID, Email: user.Email, Name: user.Name})
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint session token"))
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     pkgAuth.SessionCookieName,
			Value:    token,
			Path:     "/",
			Expires:  now.Add(cfg.SessionTTL()),
			MaxAge:   int(cfg.SessionTTL().Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		responses.WriteJSON(w, http.StatusOK, loginResponse{Message: "Login successful", User: publicUser(user)})
	}
}

// AuthRegister creates an account. The caller logs in separately.
func AuthRegister(store *sandbox.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload registerPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if _, err := store.Register(ctx, payload.Name, payload.Email, payload.Password); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusCreated, "User registered successfully")
	}
}

// AuthForgotPassword always answers the same way so account existence
// cannot be probed.
func AuthForgotPassword(store *sandbox.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload forgotPasswordPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if _, _, err := store.RequestPasswordReset(ctx, payload.Email); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "If an account with that email exists, a reset link has been sent.")
	}
}

func AuthResetPassword(store *sandbox.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload resetPasswordPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := store.ResetPassword(ctx, payload.Token, payload.Password); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "Password has been reset")
	}
}

// AuthLogout expires the session cookie.
func AuthLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     pkgAuth.SessionCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		responses.WriteMessage(w, http.StatusOK, "Logged out")
	}
}

func publicUser(u sandbox.User) *auth.User {
	return &auth.User{ID: types.ID(u.ID.String()), Name: u.Name, Email: u.Email}
}
