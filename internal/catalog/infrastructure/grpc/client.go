package grpc

import (
	"context"
	"log/slog"

	"github.com/dmehra2102/storefront/internal/catalog/domain"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type StockClient struct {
	log  *slog.Logger
	conn *grpc.ClientConn
}

func NewStockClient(log *slog.Logger, addr string, opts ...grpc.DialOption) (*StockClient, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &StockClient{log: log, conn: conn}, nil
}

func (c *StockClient) CheckStock(ctx context.Context, items []domain.StockRequest) ([]domain.StockShortage, error) {
	out := new(CheckStockResponse)
	if err := c.conn.Invoke(ctx, checkStockRoute, &CheckStockRequest{Items: items}, out); err != nil {
		return nil, err
	}
	return out.Shortages, nil
}

func (c *StockClient) Close() error { return c.conn.Close() }
