package middleware

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitkit/internal/auth"
)

type sessionKey struct{}

// Session is the caller identity attached to an authenticated request.
type Session struct {
	UserID string
	Email  string
}

// SessionFrom returns the caller's session, if the request was authenticated.
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}

// GetUserID returns the authenticated user ID, or "" for anonymous calls.
func GetUserID(ctx context.Context) string {
	s, _ := SessionFrom(ctx)
	return s.UserID
}

// WithUser returns a context carrying an authenticated user.
func WithUser(ctx context.Context, userID, email string) context.Context {
	return context.WithValue(ctx, sessionKey{}, Session{UserID: userID, Email: email})
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", auth.ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", auth.ErrInvalidToken
	}
	return token, nil
}

func authenticate(ctx context.Context, jwtManager *auth.JWTManager, req connect.AnyRequest) (context.Context, error) {
	token, err := bearerToken(req.Header().Get("Authorization"))
	if err != nil {
		return ctx, err
	}
	claims, err := jwtManager.Validate(token)
	if err != nil {
		return ctx, err
	}
	return WithUser(ctx, claims.UserID(), claims.Email), nil
}

// RequireAuth rejects calls without a valid bearer token, except for the
// procedures listed in public.
func RequireAuth(jwtManager *auth.JWTManager, public ...string) connect.UnaryInterceptorFunc {
	skip := make(map[string]struct{}, len(public))
	for _, p := range public {
		skip[p] = struct{}{}
	}

	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if _, ok := skip[req.Spec().Procedure]; ok {
				return next(ctx, req)
			}
			ctx, err := authenticate(ctx, jwtManager, req)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}
			return next(ctx, req)
		}
	}
}

// OptionalAuth attaches the session when a valid token is present and
// otherwise lets the call through anonymously.
func OptionalAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if authed, err := authenticate(ctx, jwtManager, req); err == nil {
				ctx = authed
			}
			return next(ctx, req)
		}
	}
}
