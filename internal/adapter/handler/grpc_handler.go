package handler

import (
	"context"

	"google.golang.org/grpc/metadata"

	"github.com/rl1809/supply-chain/internal/adapter/handler/rpc"
	"github.com/rl1809/supply-chain/internal/core/domain"
	"github.com/rl1809/supply-chain/internal/core/service"
)

type GRPCHandler struct {
	rpc.UnimplementedRegistryServer
	registry *service.Service
}

func NewGRPCHandler(registry *service.Service) *GRPCHandler {
	return &GRPCHandler{registry: registry}
}

func (h *GRPCHandler) AddItem(ctx context.Context, req *rpc.AddItemRequest) (*rpc.AddItemResponse, error) {
	sku, err := h.registry.AddItem(ctx, callerFromMetadata(ctx), req.Name, req.Price)
	if err != nil {
		message, reason := describe(err)
		return &rpc.AddItemResponse{Success: false, Message: message, Reason: reason}, nil
	}

	return &rpc.AddItemResponse{
		Success: true,
		Message: "item listed",
		Sku:     sku,
	}, nil
}

func (h *GRPCHandler) BuyItem(ctx context.Context, req *rpc.BuyItemRequest) (*rpc.StatusResponse, error) {
	err := h.registry.BuyItem(ctx, service.BuyRequest{
		RequestID: req.RequestId,
		Caller:    callerFromMetadata(ctx),
		Sku:       req.Sku,
		Amount:    req.Amount,
	})
	return statusResponse(err, "item purchased"), nil
}

func (h *GRPCHandler) ShipItem(ctx context.Context, req *rpc.SkuRequest) (*rpc.StatusResponse, error) {
	err := h.registry.ShipItem(ctx, callerFromMetadata(ctx), req.Sku)
	return statusResponse(err, "item shipped"), nil
}

func (h *GRPCHandler) ReceiveItem(ctx context.Context, req *rpc.SkuRequest) (*rpc.StatusResponse, error) {
	err := h.registry.ReceiveItem(ctx, callerFromMetadata(ctx), req.Sku)
	return statusResponse(err, "item received"), nil
}

func (h *GRPCHandler) FetchItem(ctx context.Context, req *rpc.SkuRequest) (*rpc.FetchItemResponse, error) {
	item, err := h.registry.FetchItem(ctx, req.Sku)
	if err != nil {
		message, reason := describe(err)
		return &rpc.FetchItemResponse{Success: false, Message: message, Reason: reason}, nil
	}

	return &rpc.FetchItemResponse{
		Success: true,
		Message: "ok",
		Item: &rpc.Item{
			Name:   item.Name,
			Sku:    item.Sku,
			Price:  item.Price,
			State:  uint32(item.State),
			Seller: string(item.Seller),
			Buyer:  string(item.Buyer),
		},
	}, nil
}

func statusResponse(err error, success string) *rpc.StatusResponse {
	if err != nil {
		message, reason := describe(err)
		return &rpc.StatusResponse{Success: false, Message: message, Reason: reason}
	}
	return &rpc.StatusResponse{Success: true, Message: success}
}

func describe(err error) (string, string) {
	reason := service.Reason(err)
	switch reason {
	case "internal":
		return "internal error", reason
	case "duplicate":
		return "duplicate request", reason
	default:
		return err.Error(), reason
	}
}

func callerFromMetadata(ctx context.Context) domain.Address {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(rpc.CallerMetadataKey)
	if len(values) == 0 {
		return ""
	}
	return domain.Address(values[0])
}
