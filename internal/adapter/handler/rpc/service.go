package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ServiceName = "supplychain.v1.Registry"

	// CallerMetadataKey carries the caller identity on every call.
	CallerMetadataKey = "x-caller-address"
)

type RegistryServer interface {
	AddItem(context.Context, *AddItemRequest) (*AddItemResponse, error)
	BuyItem(context.Context, *BuyItemRequest) (*StatusResponse, error)
	ShipItem(context.Context, *SkuRequest) (*StatusResponse, error)
	ReceiveItem(context.Context, *SkuRequest) (*StatusResponse, error)
	FetchItem(context.Context, *SkuRequest) (*FetchItemResponse, error)
}

// UnimplementedRegistryServer can be embedded for forward compatibility.
type UnimplementedRegistryServer struct{}

func (UnimplementedRegistryServer) AddItem(context.Context, *AddItemRequest) (*AddItemResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method AddItem not implemented")
}

func (UnimplementedRegistryServer) BuyItem(context.Context, *BuyItemRequest) (*StatusResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method BuyItem not implemented")
}

func (UnimplementedRegistryServer) ShipItem(context.Context, *SkuRequest) (*StatusResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ShipItem not implemented")
}

func (UnimplementedRegistryServer) ReceiveItem(context.Context, *SkuRequest) (*StatusResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ReceiveItem not implemented")
}

func (UnimplementedRegistryServer) FetchItem(context.Context, *SkuRequest) (*FetchItemResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method FetchItem not implemented")
}

func RegisterRegistryServer(s grpc.ServiceRegistrar, srv RegistryServer) {
	s.RegisterService(&RegistryServiceDesc, srv)
}

var RegistryServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RegistryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AddItem", Handler: unaryHandler("AddItem", RegistryServer.AddItem)},
		{MethodName: "BuyItem", Handler: unaryHandler("BuyItem", RegistryServer.BuyItem)},
		{MethodName: "ShipItem", Handler: unaryHandler("ShipItem", RegistryServer.ShipItem)},
		{MethodName: "ReceiveItem", Handler: unaryHandler("ReceiveItem", RegistryServer.ReceiveItem)},
		{MethodName: "FetchItem", Handler: unaryHandler("FetchItem", RegistryServer.FetchItem)},
	},
	Streams: []grpc.StreamDesc{},
}

func unaryHandler[Req, Resp any](method string, call func(RegistryServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/" + ServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RegistryServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(RegistryServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

type RegistryClient struct {
	cc grpc.ClientConnInterface
}

func NewRegistryClient(cc grpc.ClientConnInterface) *RegistryClient {
	return &RegistryClient{cc: cc}
}

func (c *RegistryClient) AddItem(ctx context.Context, in *AddItemRequest, opts ...grpc.CallOption) (*AddItemResponse, error) {
	out := new(AddItemResponse)
	return out, c.invoke(ctx, "AddItem", in, out, opts)
}

func (c *RegistryClient) BuyItem(ctx context.Context, in *BuyItemRequest, opts ...grpc.CallOption) (*StatusResponse, error) {
	out := new(StatusResponse)
	return out, c.invoke(ctx, "BuyItem", in, out, opts)
}

func (c *RegistryClient) ShipItem(ctx context.Context, in *SkuRequest, opts ...grpc.CallOption) (*StatusResponse, error) {
	out := new(StatusResponse)
	return out, c.invoke(ctx, "ShipItem", in, out, opts)
}

func (c *RegistryClient) ReceiveItem(ctx context.Context, in *SkuRequest, opts ...grpc.CallOption) (*StatusResponse, error) {
	out := new(StatusResponse)
	return out, c.invoke(ctx, "ReceiveItem", in, out, opts)
}

func (c *RegistryClient) FetchItem(ctx context.Context, in *SkuRequest, opts ...grpc.CallOption) (*FetchItemResponse, error) {
	out := new(FetchItemResponse)
	return out, c.invoke(ctx, "FetchItem", in, out, opts)
}

func (c *RegistryClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...)
}
