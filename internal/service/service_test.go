package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/splitkit/internal/auth"
	"github.com/mmynk/splitkit/internal/metrics"
	"github.com/mmynk/splitkit/internal/middleware"
	"github.com/mmynk/splitkit/internal/money"
	"github.com/mmynk/splitkit/internal/settlement"
	"github.com/mmynk/splitkit/internal/storage/bolt"
)

// testNow is the clock bills are stamped with.
var testNow = time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	split     *SplitServiceClient
	analytics *AnalyticsServiceClient
	friends   *FriendServiceClient
	auth      *AuthServiceClient
	registry  *prometheus.Registry
}

type testUser struct {
	ID    string
	Name  string
	Email string
	Token string
}

// setupTestServer serves every service from a temp Bolt database behind
// the real auth interceptor.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	store, err := bolt.New(filepath.Join(t.TempDir(), "test.bolt"))
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	jwtManager := auth.NewJWTManager("test-secret-key-for-service-tests", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store, auth.WithBcryptCost(bcrypt.MinCost))

	builder := settlement.NewBuilder(settlement.WithClock(func() time.Time { return testNow }))
	analyticsSvc := NewAnalyticsService(store, 6, logger)
	analyticsSvc.now = func() time.Time { return testNow.Add(time.Hour) }

	interceptors := connect.WithInterceptors(
		m.Interceptor(),
		middleware.RequireAuth(jwtManager, PublicProcedures...),
	)

	mux := http.NewServeMux()
	mux.Handle(NewSplitServiceHandler(NewSplitService(store, builder, m, logger), interceptors))
	mux.Handle(NewAnalyticsServiceHandler(analyticsSvc, interceptors))
	mux.Handle(NewFriendServiceHandler(NewFriendService(store, logger), interceptors))
	mux.Handle(NewAuthServiceHandler(NewAuthService(authenticator, jwtManager, store, m, logger), interceptors))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return &testEnv{
		split:     NewSplitServiceClient(http.DefaultClient, server.URL),
		analytics: NewAnalyticsServiceClient(http.DefaultClient, server.URL),
		friends:   NewFriendServiceClient(http.DefaultClient, server.URL),
		auth:      NewAuthServiceClient(http.DefaultClient, server.URL),
		registry:  registry,
	}
}

// register creates an account and returns it with a session token.
func (e *testEnv) register(t *testing.T, name string) testUser {
	t.Helper()
	email := name + "@example.com"
	resp, err := e.auth.Register(context.Background(), connect.NewRequest(&RegisterRequest{
		Email:       email,
		DisplayName: name,
		Password:    "correct-horse",
	}))
	require.NoError(t, err)
	return testUser{ID: resp.Msg.User.ID, Name: name, Email: email, Token: resp.Msg.Token}
}

func (u testUser) participant() ParticipantInput {
	return ParticipantInput{ID: u.ID, DisplayName: u.Name}
}

// as wraps msg in a request authenticated as u.
func as[T any](u testUser, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+u.Token)
	return req
}

// createBill saves an equal split of total paid by creator.
func (e *testEnv) createBill(t *testing.T, creator testUser, category, total string, others ...testUser) *BillResponse {
	t.Helper()
	split := SplitInput{
		Mode:         "equal",
		Total:        money.MustParse(total),
		Participants: []ParticipantInput{creator.participant()},
	}
	for _, o := range others {
		split.Participants = append(split.Participants, o.participant())
	}

	resp, err := e.split.CreateBill(context.Background(), as(creator, &CreateBillRequest{
		Category: category,
		Split:    split,
	}))
	require.NoError(t, err)
	return resp.Msg
}
