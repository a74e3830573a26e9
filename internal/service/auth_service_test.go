package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_RegisterAndLogin(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	reg, err := env.auth.Register(ctx, connect.NewRequest(&RegisterRequest{
		Email:       "Alice@Example.com",
		DisplayName: "Alice",
		Phone:       "+1 555 0100",
		Password:    "correct-horse",
	}))
	require.NoError(t, err)
	assert.NotEmpty(t, reg.Msg.Token)
	assert.Equal(t, "alice@example.com", reg.Msg.User.Email)
	assert.Equal(t, "Alice", reg.Msg.User.DisplayName)
	assert.False(t, reg.Msg.ExpiresAt.IsZero())

	login, err := env.auth.Login(ctx, connect.NewRequest(&LoginRequest{
		Email:    "alice@example.com",
		Password: "correct-horse",
	}))
	require.NoError(t, err)
	assert.Equal(t, reg.Msg.User.ID, login.Msg.User.ID)

	me, err := env.auth.GetCurrentUser(ctx, as(testUser{Token: login.Msg.Token}, &GetCurrentUserRequest{}))
	require.NoError(t, err)
	assert.Equal(t, reg.Msg.User.ID, me.Msg.User.ID)
	assert.Equal(t, "Alice", me.Msg.User.DisplayName)
	assert.Equal(t, "+1 555 0100", me.Msg.User.Phone)

	n, err := testutil.GatherAndCount(env.registry, "splitkit_auth_events_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestAuthService_Errors(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	env.register(t, "alice")

	tests := []struct {
		name string
		call func() error
		want connect.Code
	}{
		{
			name: "duplicate email",
			call: func() error {
				_, err := env.auth.Register(ctx, connect.NewRequest(&RegisterRequest{
					Email: "ALICE@example.com", DisplayName: "Alice 2", Password: "another-password",
				}))
				return err
			},
			want: connect.CodeAlreadyExists,
		},
		{
			name: "weak password",
			call: func() error {
				_, err := env.auth.Register(ctx, connect.NewRequest(&RegisterRequest{
					Email: "bob@example.com", DisplayName: "Bob", Password: "short",
				}))
				return err
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "missing display name",
			call: func() error {
				_, err := env.auth.Register(ctx, connect.NewRequest(&RegisterRequest{
					Email: "bob@example.com", Password: "long-enough",
				}))
				return err
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "wrong password",
			call: func() error {
				_, err := env.auth.Login(ctx, connect.NewRequest(&LoginRequest{
					Email: "alice@example.com", Password: "wrong-password",
				}))
				return err
			},
			want: connect.CodeUnauthenticated,
		},
		{
			name: "unknown email",
			call: func() error {
				_, err := env.auth.Login(ctx, connect.NewRequest(&LoginRequest{
					Email: "nobody@example.com", Password: "whatever-it-is",
				}))
				return err
			},
			want: connect.CodeUnauthenticated,
		},
		{
			name: "no token",
			call: func() error {
				_, err := env.auth.GetCurrentUser(ctx, connect.NewRequest(&GetCurrentUserRequest{}))
				return err
			},
			want: connect.CodeUnauthenticated,
		},
		{
			name: "garbage token",
			call: func() error {
				_, err := env.auth.GetCurrentUser(ctx, as(testUser{Token: "not.a.jwt"}, &GetCurrentUserRequest{}))
				return err
			},
			want: connect.CodeUnauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.Equal(t, tt.want, connect.CodeOf(err))
		})
	}
}
