package grpc

import (
	"context"
	"log/slog"
	"net"

	"github.com/dmehra2102/storefront/internal/catalog/domain"
	"google.golang.org/grpc"
)

const (
	serviceName     = "storefront.catalog.v1.StockService"
	checkStockRoute = "/" + serviceName + "/CheckStock"
)

type CheckStockRequest struct {
	Items []domain.StockRequest `json:"items"`
}

type CheckStockResponse struct {
	Available bool                   `json:"available"`
	Shortages []domain.StockShortage `json:"shortages,omitempty"`
}

// StockChecker is the catalog capability exposed over gRPC.
type StockChecker interface {
	CheckStock(ctx context.Context, reqs []domain.StockRequest) ([]domain.StockShortage, error)
}

type stockServer interface {
	CheckStock(ctx context.Context, req *CheckStockRequest) (*CheckStockResponse, error)
}

type Server struct {
	log     *slog.Logger
	checker StockChecker
}

func NewServer(log *slog.Logger, checker StockChecker) *Server {
	return &Server{log: log, checker: checker}
}

func (s *Server) CheckStock(ctx context.Context, req *CheckStockRequest) (*CheckStockResponse, error) {
	short, err := s.checker.CheckStock(ctx, req.Items)
	if err != nil {
		s.log.Error("check stock failed", "err", err)
		return nil, err
	}
	return &CheckStockResponse{Available: len(short) == 0, Shortages: short}, nil
}

func checkStockHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CheckStockRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(stockServer).CheckStock(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: checkStockRoute}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(stockServer).CheckStock(ctx, req.(*CheckStockRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var stockServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*stockServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CheckStock", Handler: checkStockHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "catalog/stock.json",
}

func Register(gs *grpc.Server, srv *Server) {
	gs.RegisterService(&stockServiceDesc, srv)
}

func Run(addr string, srv *Server) (*grpc.Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	gs := grpc.NewServer()
	Register(gs, srv)
	go func() {
		_ = gs.Serve(lis)
	}()
	return gs, nil
}
