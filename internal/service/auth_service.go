package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitkit/internal/auth"
	"github.com/mmynk/splitkit/internal/metrics"
	"github.com/mmynk/splitkit/internal/middleware"
	"github.com/mmynk/splitkit/internal/models"
	"github.com/mmynk/splitkit/internal/storage"
	"github.com/mmynk/splitkit/internal/validation"
)

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	users         storage.UserStore
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service. m may be nil.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, users storage.UserStore, m *metrics.Metrics, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		users:         users,
		metrics:       m,
		logger:        logger,
	}
}

// Register creates a new user account.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[RegisterRequest]) (*connect.Response[SessionResponse], error) {
	s.logger.InfoContext(ctx, "Register request", "email", req.Msg.Email)

	if err := validation.Default().Struct(req.Msg); err != nil {
		s.metrics.RecordAuth("register", false)
		return nil, toConnectError(err)
	}

	user, err := s.authenticator.Register(ctx, auth.Registration{
		Email:       req.Msg.Email,
		DisplayName: req.Msg.DisplayName,
		Phone:       req.Msg.Phone,
		Credential:  req.Msg.Password,
	})
	if err != nil {
		s.metrics.RecordAuth("register", false)
		s.logger.WarnContext(ctx, "Registration failed", "email", req.Msg.Email, "error", err)
		return nil, toConnectError(err)
	}

	resp, err := s.session(user)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to generate token", "user_id", user.ID, "error", err)
		return nil, toConnectError(err)
	}

	s.metrics.RecordAuth("register", true)
	s.logger.InfoContext(ctx, "User registered successfully", "user_id", user.ID, "email", user.Email)
	return connect.NewResponse(resp), nil
}

// Login authenticates a user and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[SessionResponse], error) {
	s.logger.InfoContext(ctx, "Login request", "email", req.Msg.Email)

	if err := validation.Default().Struct(req.Msg); err != nil {
		s.metrics.RecordAuth("login", false)
		return nil, toConnectError(err)
	}

	user, err := s.authenticator.Authenticate(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		s.metrics.RecordAuth("login", false)
		s.logger.WarnContext(ctx, "Login failed", "email", req.Msg.Email, "error", err)
		return nil, toConnectError(err)
	}

	resp, err := s.session(user)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to generate token", "user_id", user.ID, "error", err)
		return nil, toConnectError(err)
	}

	s.metrics.RecordAuth("login", true)
	s.logger.InfoContext(ctx, "User logged in successfully", "user_id", user.ID)
	return connect.NewResponse(resp), nil
}

func (s *AuthService) session(user *models.User) (*SessionResponse, error) {
	token, expiresAt, err := s.jwtManager.Generate(user)
	if err != nil {
		return nil, err
	}
	return &SessionResponse{User: userInfo(user), Token: token, ExpiresAt: expiresAt}, nil
}

// GetCurrentUser returns the currently authenticated user's information.
func (s *AuthService) GetCurrentUser(ctx context.Context, req *connect.Request[GetCurrentUserRequest]) (*connect.Response[GetCurrentUserResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, toConnectError(errAuthRequired)
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetCurrentUserResponse{User: userInfo(user)}), nil
}
