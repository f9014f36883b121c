package grpc

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/dmehra2102/storefront/internal/catalog/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

type fixedChecker struct {
	stock map[string]int
}

func (f fixedChecker) CheckStock(_ context.Context, reqs []domain.StockRequest) ([]domain.StockShortage, error) {
	var out []domain.StockShortage
	for _, r := range reqs {
		if r.Quantity > f.stock[r.ProductID] {
			out = append(out, domain.StockShortage{ProductID: r.ProductID, Requested: r.Quantity, Available: f.stock[r.ProductID]})
		}
	}
	return out, nil
}

func TestStockServiceOverBufconn(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer()
	Register(gs, NewServer(log, fixedChecker{stock: map[string]int{"A": 3}}))
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	client, err := NewStockClient(log, "passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	short, err := client.CheckStock(context.Background(), []domain.StockRequest{{ProductID: "A", Quantity: 2}})
	require.NoError(t, err)
	assert.Empty(t, short)

	short, err = client.CheckStock(context.Background(), []domain.StockRequest{{ProductID: "A", Quantity: 4}})
	require.NoError(t, err)
	assert.Equal(t, []domain.StockShortage{{ProductID: "A", Requested: 4, Available: 3}}, short)
}
