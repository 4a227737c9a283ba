package auth

import (
	"context"
	"strings"

	"github.com/angelmondragon/storefront/internal/notifications"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/security"
	"github.com/angelmondragon/storefront/pkg/validation"
)

const (
	MsgLoginSuccess    = "Login successful!"
	MsgRegisterSuccess = "Registration successful! Please login."
	MsgResetLinkSent   = "If an account with that email exists, a reset link has been sent."
	MsgResetSuccess    = "Password reset successfully!"
	MsgLogoutSuccess   = "You have been logged out."

	msgInvalidEmail     = "Please enter a valid email address."
	msgPasswordRequired = "Please enter your password."
	msgNameRequired     = "Please enter your name."
	msgMissingToken     = "No reset token found. Please request a new link."
	msgResetRejected    = "Could not reset password. The link may be invalid or expired."
	msgUnreachable      = "Could not connect to the server."
	msgGenericFailure   = "An error occurred."
)

// API is the backend surface used by the account flows.
type API interface {
	StatusFetcher
	Login(ctx context.Context, req LoginRequest) error
	Register(ctx context.Context, req RegisterRequest) error
	ForgotPassword(ctx context.Context, req ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
	Logout(ctx context.Context) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	API      API
	Probe    *Probe
	Notifier notifications.Notifier
	Logger   *logger.Logger
}

// Service runs the account flows. Every method returns the message to show
// on success, and an error whose user message is safe to display otherwise.
type Service struct {
	api      API
	probe    *Probe
	notifier notifications.Notifier
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.API == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "auth api is required")
	}
	if params.Probe == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "auth probe is required")
	}
	s := &Service{
		api:      params.API,
		probe:    params.Probe,
		notifier: params.Notifier,
		logg:     params.Logger,
	}
	if s.notifier == nil {
		s.notifier = notifications.Discard{}
	}
	if s.logg == nil {
		s.logg = logger.Nop()
	}
	return s, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if !validation.IsEmail(email) {
		return "", s.reject(ctx, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidEmail))
	}
	if password == "" {
		return "", s.reject(ctx, pkgerrors.New(pkgerrors.CodeValidation, msgPasswordRequired))
	}

	if err := s.api.Login(ctx, LoginRequest{Email: email, Password: password}); err != nil {
		return "", s.fail(ctx, "login", err, "")
	}
	s.probe.Reset()
	return s.succeed(ctx, MsgLoginSuccess), nil
}

func (s *Service) Register(ctx context.Context, name, email, password string) (string, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return "", s.reject(ctx, pkgerrors.New(pkgerrors.CodeValidation, msgNameRequired))
	}
	if !validation.IsEmail(email) {
		return "", s.reject(ctx, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidEmail))
	}
	if err := security.ValidateSignupPassword(password); err != nil {
		return "", s.reject(ctx, err)
	}

	if err := s.api.Register(ctx, RegisterRequest{Name: name, Email: email, Password: password}); err != nil {
		return "", s.fail(ctx, "register", err, "")
	}
	return s.succeed(ctx, MsgRegisterSuccess), nil
}

// ForgotPassword never reveals whether the account exists.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if !validation.IsEmail(email) {
		return "", s.reject(ctx, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidEmail))
	}

	if err := s.api.ForgotPassword(ctx, ForgotPasswordRequest{Email: email}); err != nil {
		return "", s.fail(ctx, "forgot_password", err, "")
	}
	return s.succeed(ctx, MsgResetLinkSent), nil
}

// ResetPassword hides backend rejection detail behind a generic message.
func (s *Service) ResetPassword(ctx context.Context, token, password, confirm string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", s.reject(ctx, pkgerrors.New(pkgerrors.CodeValidation, msgMissingToken))
	}
	if err := security.ValidateResetPassword(password, confirm); err != nil {
		return "", s.reject(ctx, err)
	}

	if err := s.api.ResetPassword(ctx, ResetPasswordRequest{Token: token, Password: password}); err != nil {
		return "", s.fail(ctx, "reset_password", err, msgResetRejected)
	}
	return s.succeed(ctx, MsgResetSuccess), nil
}

func (s *Service) Logout(ctx context.Context) (string, error) {
	err := s.api.Logout(ctx)
	s.probe.Reset()
	if err != nil {
		return "", s.fail(ctx, "logout", err, "")
	}
	return s.succeed(ctx, MsgLogoutSuccess), nil
}

// Status returns the probed auth state.
func (s *Service) Status(ctx context.Context) (State, error) {
	state, err := s.probe.State(ctx)
	if err != nil {
		return State{}, pkgerrors.Wrap(pkgerrors.CodeConnectivity, err, msgUnreachable)
	}
	return state, nil
}

func (s *Service) succeed(ctx context.Context, msg string) string {
	s.notifier.Notify(ctx, notifications.Success(msg))
	return msg
}

func (s *Service) reject(ctx context.Context, err error) error {
	s.notifier.Notify(ctx, notifications.Error(pkgerrors.UserMessage(err)))
	return err
}

// fail maps a backend error to the message shown to the user. A non-empty
// rejected message replaces the backend's own text.
func (s *Service) fail(ctx context.Context, op string, err error, rejected string) error {
	ctx = s.logg.WithField(ctx, "auth_op", op)

	var out *pkgerrors.Error
	switch {
	case pkgerrors.IsCode(err, pkgerrors.CodeConnectivity):
		out = pkgerrors.Wrap(pkgerrors.CodeConnectivity, err, msgUnreachable)
	case rejected != "":
		out = pkgerrors.Wrap(pkgerrors.CodeServerRejected, err, rejected)
	default:
		out = pkgerrors.Wrap(pkgerrors.CodeServerRejected, err, serverMessage(err))
	}
	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "auth request failed")
	s.notifier.Notify(ctx, notifications.Error(out.Message()))
	return out
}

func serverMessage(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil || typed.Message() == "" {
		return msgGenericFailure
	}
	switch typed.Code() {
	case pkgerrors.CodeServerRejected, pkgerrors.CodeUnauthorized, pkgerrors.CodeNotFound,
		pkgerrors.CodeConflict, pkgerrors.CodeValidation:
		return typed.Message()
	}
	return msgGenericFailure
}
