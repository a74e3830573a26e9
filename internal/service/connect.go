package service

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

const (
	SplitServiceName     = "splitkit.v1.SplitService"
	AnalyticsServiceName = "splitkit.v1.AnalyticsService"
	FriendServiceName    = "splitkit.v1.FriendService"
	AuthServiceName      = "splitkit.v1.AuthService"
)

// Fully-qualified procedure names, as seen by interceptors in
// connect.Spec.Procedure.
const (
	SplitServicePreviewSplitProcedure = "/" + SplitServiceName + "/PreviewSplit"
	SplitServiceCreateBillProcedure   = "/" + SplitServiceName + "/CreateBill"
	SplitServiceGetBillProcedure      = "/" + SplitServiceName + "/GetBill"
	SplitServiceListBillsProcedure    = "/" + SplitServiceName + "/ListBills"

	AnalyticsServiceSummarizeProcedure   = "/" + AnalyticsServiceName + "/Summarize"
	AnalyticsServiceGetBalancesProcedure = "/" + AnalyticsServiceName + "/GetBalances"

	FriendServiceListFriendsProcedure  = "/" + FriendServiceName + "/ListFriends"
	FriendServiceAddFriendProcedure    = "/" + FriendServiceName + "/AddFriend"
	FriendServiceRemoveFriendProcedure = "/" + FriendServiceName + "/RemoveFriend"

	AuthServiceRegisterProcedure       = "/" + AuthServiceName + "/Register"
	AuthServiceLoginProcedure          = "/" + AuthServiceName + "/Login"
	AuthServiceGetCurrentUserProcedure = "/" + AuthServiceName + "/GetCurrentUser"
)

// PublicProcedures can be called without a bearer token.
var PublicProcedures = []string{
	AuthServiceRegisterProcedure,
	AuthServiceLoginProcedure,
}

func withCodec[T any](opts []T, codec T) []T {
	return append([]T{codec}, opts...)
}

func unary[Req, Res any](mux *http.ServeMux, procedure string, fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error), opts []connect.HandlerOption) {
	mux.Handle(procedure, connect.NewUnaryHandler(procedure, fn, opts...))
}

// NewSplitServiceHandler builds an HTTP handler for svc. It returns the path
// to mount the handler on.
func NewSplitServiceHandler(svc *SplitService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts, connect.HandlerOption(connect.WithCodec(jsonCodec{})))
	mux := http.NewServeMux()
	unary(mux, SplitServicePreviewSplitProcedure, svc.PreviewSplit, opts)
	unary(mux, SplitServiceCreateBillProcedure, svc.CreateBill, opts)
	unary(mux, SplitServiceGetBillProcedure, svc.GetBill, opts)
	unary(mux, SplitServiceListBillsProcedure, svc.ListBills, opts)
	return "/" + SplitServiceName + "/", mux
}

// NewAnalyticsServiceHandler builds an HTTP handler for svc.
func NewAnalyticsServiceHandler(svc *AnalyticsService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts, connect.HandlerOption(connect.WithCodec(jsonCodec{})))
	mux := http.NewServeMux()
	unary(mux, AnalyticsServiceSummarizeProcedure, svc.Summarize, opts)
	unary(mux, AnalyticsServiceGetBalancesProcedure, svc.GetBalances, opts)
	return "/" + AnalyticsServiceName + "/", mux
}

// NewFriendServiceHandler builds an HTTP handler for svc.
func NewFriendServiceHandler(svc *FriendService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts, connect.HandlerOption(connect.WithCodec(jsonCodec{})))
	mux := http.NewServeMux()
	unary(mux, FriendServiceListFriendsProcedure, svc.ListFriends, opts)
	unary(mux, FriendServiceAddFriendProcedure, svc.AddFriend, opts)
	unary(mux, FriendServiceRemoveFriendProcedure, svc.RemoveFriend, opts)
	return "/" + FriendServiceName + "/", mux
}

// NewAuthServiceHandler builds an HTTP handler for svc.
func NewAuthServiceHandler(svc *AuthService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts, connect.HandlerOption(connect.WithCodec(jsonCodec{})))
	mux := http.NewServeMux()
	unary(mux, AuthServiceRegisterProcedure, svc.Register, opts)
	unary(mux, AuthServiceLoginProcedure, svc.Login, opts)
	unary(mux, AuthServiceGetCurrentUserProcedure, svc.GetCurrentUser, opts)
	return "/" + AuthServiceName + "/", mux
}

func newClient[Req, Res any](httpClient connect.HTTPClient, baseURL, procedure string, opts []connect.ClientOption) *connect.Client[Req, Res] {
	return connect.NewClient[Req, Res](httpClient, strings.TrimRight(baseURL, "/")+procedure, opts...)
}

// SplitServiceClient calls a remote SplitService.
type SplitServiceClient struct {
	previewSplit *connect.Client[PreviewSplitRequest, PreviewSplitResponse]
	createBill   *connect.Client[CreateBillRequest, BillResponse]
	getBill      *connect.Client[GetBillRequest, BillResponse]
	listBills    *connect.Client[ListBillsRequest, ListBillsResponse]
}

// NewSplitServiceClient returns a client for the service at baseURL
// (for example, http://localhost:8080).
func NewSplitServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *SplitServiceClient {
	opts = withCodec(opts, connect.ClientOption(connect.WithCodec(jsonCodec{})))
	return &SplitServiceClient{
		previewSplit: newClient[PreviewSplitRequest, PreviewSplitResponse](httpClient, baseURL, SplitServicePreviewSplitProcedure, opts),
		createBill:   newClient[CreateBillRequest, BillResponse](httpClient, baseURL, SplitServiceCreateBillProcedure, opts),
		getBill:      newClient[GetBillRequest, BillResponse](httpClient, baseURL, SplitServiceGetBillProcedure, opts),
		listBills:    newClient[ListBillsRequest, ListBillsResponse](httpClient, baseURL, SplitServiceListBillsProcedure, opts),
	}
}

func (c *SplitServiceClient) PreviewSplit(ctx context.Context, req *connect.Request[PreviewSplitRequest]) (*connect.Response[PreviewSplitResponse], error) {
	return c.previewSplit.CallUnary(ctx, req)
}

func (c *SplitServiceClient) CreateBill(ctx context.Context, req *connect.Request[CreateBillRequest]) (*connect.Response[BillResponse], error) {
	return c.createBill.CallUnary(ctx, req)
}

func (c *SplitServiceClient) GetBill(ctx context.Context, req *connect.Request[GetBillRequest]) (*connect.Response[BillResponse], error) {
	return c.getBill.CallUnary(ctx, req)
}

func (c *SplitServiceClient) ListBills(ctx context.Context, req *connect.Request[ListBillsRequest]) (*connect.Response[ListBillsResponse], error) {
	return c.listBills.CallUnary(ctx, req)
}

// AnalyticsServiceClient calls a remote AnalyticsService.
type AnalyticsServiceClient struct {
	summarize   *connect.Client[SummarizeRequest, SummarizeResponse]
	getBalances *connect.Client[GetBalancesRequest, GetBalancesResponse]
}

func NewAnalyticsServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AnalyticsServiceClient {
	opts = withCodec(opts, connect.ClientOption(connect.WithCodec(jsonCodec{})))
	return &AnalyticsServiceClient{
		summarize:   newClient[SummarizeRequest, SummarizeResponse](httpClient, baseURL, AnalyticsServiceSummarizeProcedure, opts),
		getBalances: newClient[GetBalancesRequest, GetBalancesResponse](httpClient, baseURL, AnalyticsServiceGetBalancesProcedure, opts),
	}
}

func (c *AnalyticsServiceClient) Summarize(ctx context.Context, req *connect.Request[SummarizeRequest]) (*connect.Response[SummarizeResponse], error) {
	return c.summarize.CallUnary(ctx, req)
}

func (c *AnalyticsServiceClient) GetBalances(ctx context.Context, req *connect.Request[GetBalancesRequest]) (*connect.Response[GetBalancesResponse], error) {
	return c.getBalances.CallUnary(ctx, req)
}

// FriendServiceClient calls a remote FriendService.
type FriendServiceClient struct {
	listFriends  *connect.Client[ListFriendsRequest, ListFriendsResponse]
	addFriend    *connect.Client[AddFriendRequest, AddFriendResponse]
	removeFriend *connect.Client[RemoveFriendRequest, RemoveFriendResponse]
}

func NewFriendServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *FriendServiceClient {
	opts = withCodec(opts, connect.ClientOption(connect.WithCodec(jsonCodec{})))
	return &FriendServiceClient{
		listFriends:  newClient[ListFriendsRequest, ListFriendsResponse](httpClient, baseURL, FriendServiceListFriendsProcedure, opts),
		addFriend:    newClient[AddFriendRequest, AddFriendResponse](httpClient, baseURL, FriendServiceAddFriendProcedure, opts),
		removeFriend: newClient[RemoveFriendRequest, RemoveFriendResponse](httpClient, baseURL, FriendServiceRemoveFriendProcedure, opts),
	}
}

func (c *FriendServiceClient) ListFriends(ctx context.Context, req *connect.Request[ListFriendsRequest]) (*connect.Response[ListFriendsResponse], error) {
	return c.listFriends.CallUnary(ctx, req)
}

func (c *FriendServiceClient) AddFriend(ctx context.Context, req *connect.Request[AddFriendRequest]) (*connect.Response[AddFriendResponse], error) {
	return c.addFriend.CallUnary(ctx, req)
}

func (c *FriendServiceClient) RemoveFriend(ctx context.Context, req *connect.Request[RemoveFriendRequest]) (*connect.Response[RemoveFriendResponse], error) {
	return c.removeFriend.CallUnary(ctx, req)
}

// AuthServiceClient calls a remote AuthService.
type AuthServiceClient struct {
	register       *connect.Client[RegisterRequest, SessionResponse]
	login          *connect.Client[LoginRequest, SessionResponse]
	getCurrentUser *connect.Client[GetCurrentUserRequest, GetCurrentUserResponse]
}

func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AuthServiceClient {
	opts = withCodec(opts, connect.ClientOption(connect.WithCodec(jsonCodec{})))
	return &AuthServiceClient{
		register:       newClient[RegisterRequest, SessionResponse](httpClient, baseURL, AuthServiceRegisterProcedure, opts),
		login:          newClient[LoginRequest, SessionResponse](httpClient, baseURL, AuthServiceLoginProcedure, opts),
		getCurrentUser: newClient[GetCurrentUserRequest, GetCurrentUserResponse](httpClient, baseURL, AuthServiceGetCurrentUserProcedure, opts),
	}
}

func (c *AuthServiceClient) Register(ctx context.Context, req *connect.Request[RegisterRequest]) (*connect.Response[SessionResponse], error) {
	return c.register.CallUnary(ctx, req)
}

func (c *AuthServiceClient) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[SessionResponse], error) {
	return c.login.CallUnary(ctx, req)
}

func (c *AuthServiceClient) GetCurrentUser(ctx context.Context, req *connect.Request[GetCurrentUserRequest]) (*connect.Response[GetCurrentUserResponse], error) {
	return c.getCurrentUser.CallUnary(ctx, req)
}
