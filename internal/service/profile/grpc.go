package profile

import (
	"context"

	"google.golang.org/grpc"

	"github.com/onikinet/oniki-match/internal/auth"
	svcErr "github.com/onikinet/oniki-match/internal/errors"
	"github.com/onikinet/oniki-match/internal/repository"
	"github.com/onikinet/oniki-match/internal/rpc"
)

const ServiceName = "oniki.profile.v1.ProfileService"

type GetProfileRequest struct {
	ID string `json:"id"`
}

// UpdateProfileRequest carries the editable fields; absent fields are left alone.
type UpdateProfileRequest struct {
	ID         string    `json:"id,omitempty"`
	Name       *string   `json:"name,omitempty"`
	Company    *string   `json:"company,omitempty"`
	JobTitle   *string   `json:"jobTitle,omitempty"`
	Bio        *string   `json:"bio,omitempty"`
	Industries *[]string `json:"industries,omitempty"`
	Interests  *[]string `json:"interests,omitempty"`
	Goals      *[]string `json:"goals,omitempty"`
}

func (r *UpdateProfileRequest) patch() repository.ProfilePatch {
	return repository.ProfilePatch{
		Name:       r.Name,
		Company:    r.Company,
		JobTitle:   r.JobTitle,
		Bio:        r.Bio,
		Industries: r.Industries,
		Interests:  r.Interests,
		Goals:      r.Goals,
	}
}

type DeactivateProfileRequest struct {
	ID string `json:"id"`
}

type DeactivateProfileResponse struct{}

type grpcServer struct {
	svc *Service
}

// ServiceDesc describes ProfileService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "GetProfile", (*grpcServer).GetProfile),
		rpc.Unary(ServiceName, "UpdateProfile", (*grpcServer).UpdateProfile),
		rpc.Unary(ServiceName, "DeactivateProfile", (*grpcServer).DeactivateProfile),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "oniki/profile/v1/profile.json",
}

func (g *grpcServer) GetProfile(ctx context.Context, req *GetProfileRequest) (*Profile, error) {
	sess, err := auth.Require(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	p, err := g.svc.GetProfile(ctx, sess, req.ID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return p, nil
}

func (g *grpcServer) UpdateProfile(ctx context.Context, req *UpdateProfileRequest) (*Profile, error) {
	sess, err := auth.Require(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	id := req.ID
	if id == "" {
		id = sess.UserID
	}
	p, err := g.svc.UpdateProfile(ctx, sess, id, req.patch())
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return p, nil
}

func (g *grpcServer) DeactivateProfile(ctx context.Context, req *DeactivateProfileRequest) (*DeactivateProfileResponse, error) {
	sess, err := auth.Require(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if err := g.svc.DeactivateProfile(ctx, sess, req.ID); err != nil {
		return nil, svcErr.Map(err)
	}
	return &DeactivateProfileResponse{}, nil
}

// Client calls ProfileService over a gRPC connection using the JSON codec.
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) GetProfile(ctx context.Context, id string, opts ...grpc.CallOption) (*Profile, error) {
	return rpc.Invoke[Profile](ctx, c.conn, ServiceName, "GetProfile", &GetProfileRequest{ID: id}, opts...)
}

func (c *Client) UpdateProfile(ctx context.Context, req *UpdateProfileRequest, opts ...grpc.CallOption) (*Profile, error) {
	return rpc.Invoke[Profile](ctx, c.conn, ServiceName, "UpdateProfile", req, opts...)
}

func (c *Client) DeactivateProfile(ctx context.Context, id string, opts ...grpc.CallOption) error {
	_, err := rpc.Invoke[DeactivateProfileResponse](ctx, c.conn, ServiceName, "DeactivateProfile", &DeactivateProfileRequest{ID: id}, opts...)
	return err
}
