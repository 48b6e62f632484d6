package match

import (
	"context"

	"google.golang.org/grpc"

	"github.com/onikinet/oniki-match/internal/auth"
	svcErr "github.com/onikinet/oniki-match/internal/errors"
	"github.com/onikinet/oniki-match/internal/rpc"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "oniki.match.v1.MatchService"

// grpcServer adapts Service to the gRPC wire. Every method acts for the
// authenticated caller and maps domain errors to gRPC status codes.
type grpcServer struct {
	svc *Service
}

// ServiceDesc describes MatchService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "CreateMatch", (*grpcServer).CreateMatch),
		rpc.Unary(ServiceName, "Respond", (*grpcServer).Respond),
		rpc.Unary(ServiceName, "Recommendations", (*grpcServer).Recommendations),
		rpc.Unary(ServiceName, "Explain", (*grpcServer).Explain),
		rpc.Unary(ServiceName, "GetMatch", (*grpcServer).GetMatch),
		rpc.Unary(ServiceName, "ListMatches", (*grpcServer).ListMatches),
		rpc.Unary(ServiceName, "CountPending", (*grpcServer).CountPending),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "oniki/match/v1/match.json",
}

func (g *grpcServer) CreateMatch(ctx context.Context, req *CreateMatchRequest) (*Match, error) {
	sess, err := auth.Require(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	subject, err := ActingSubject(sess, req.SubjectID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	m, err := g.svc.CreateMatch(ctx, subject, req.CandidateID, req.EventID)
	if err != nil {
		g.svc.appCtx.Logger.Debug("CreateMatch failed", "subject", subject, "err", err)
		return nil, svcErr.Map(err)
	}
	return m, nil
}

func (g *grpcServer) Respond(ctx context.Context, req *RespondRequest) (*Match, error) {
	sess, err := auth.Require(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	m, err := g.svc.Respond(ctx, req.MatchID, sess.UserID, req.Decision)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return m, nil
}

func (g *grpcServer) Recommendations(ctx context.Context, req *RecommendationsRequest) (*RecommendationsResponse, error) {
	sess, err := auth.Require(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	recs, err := g.svc.Recommendations(ctx, sess.UserID, req.EventID, req.Limit, req.Persist)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &RecommendationsResponse{EventID: req.EventID, Recommendations: recs}, nil
}

func (g *grpcServer) Explain(ctx context.Context, req *ExplainRequest) (*Explanation, error) {
	sess, err := auth.Require(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	e, err := g.svc.Explain(ctx, sess.UserID, req.CandidateID, req.EventID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return e, nil
}

func (g *grpcServer) GetMatch(ctx context.Context, req *GetMatchRequest) (*Match, error) {
	sess, err := auth.Require(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	m, err := g.svc.GetMatch(ctx, req.MatchID, sess.UserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return m, nil
}

func (g *grpcServer) ListMatches(ctx context.Context, req *ListMatchesRequest) (*ListMatchesResponse, error) {
	sess, err := auth.Require(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	resp, err := g.svc.ListMatches(ctx, sess.UserID, *req)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return resp, nil
}

func (g *grpcServer) CountPending(ctx context.Context, _ *CountPendingRequest) (*CountPendingResponse, error) {
	sess, err := auth.Require(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	n, err := g.svc.CountPending(ctx, sess.UserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &CountPendingResponse{Count: n}, nil
}

// Client calls MatchService over a gRPC connection using the JSON codec.
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) CreateMatch(ctx context.Context, req *CreateMatchRequest, opts ...grpc.CallOption) (*Match, error) {
	return rpc.Invoke[Match](ctx, c.conn, ServiceName, "CreateMatch", req, opts...)
}

func (c *Client) Respond(ctx context.Context, req *RespondRequest, opts ...grpc.CallOption) (*Match, error) {
	return rpc.Invoke[Match](ctx, c.conn, ServiceName, "Respond", req, opts...)
}

func (c *Client) Recommendations(ctx context.Context, req *RecommendationsRequest, opts ...grpc.CallOption) (*RecommendationsResponse, error) {
	return rpc.Invoke[RecommendationsResponse](ctx, c.conn, ServiceName, "Recommendations", req, opts...)
}

func (c *Client) Explain(ctx context.Context, req *ExplainRequest, opts ...grpc.CallOption) (*Explanation, error) {
	return rpc.Invoke[Explanation](ctx, c.conn, ServiceName, "Explain", req, opts...)
}

func (c *Client) GetMatch(ctx context.Context, req *GetMatchRequest, opts ...grpc.CallOption) (*Match, error) {
	return rpc.Invoke[Match](ctx, c.conn, ServiceName, "GetMatch", req, opts...)
}

func (c *Client) ListMatches(ctx context.Context, req *ListMatchesRequest, opts ...grpc.CallOption) (*ListMatchesResponse, error) {
	return rpc.Invoke[ListMatchesResponse](ctx, c.conn, ServiceName, "ListMatches", req, opts...)
}

func (c *Client) CountPending(ctx context.Context, opts ...grpc.CallOption) (*CountPendingResponse, error) {
	return rpc.Invoke[CountPendingResponse](ctx, c.conn, ServiceName, "CountPending", &CountPendingRequest{}, opts...)
}
