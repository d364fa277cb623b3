package grpc

import (
	"fmt"
	"net"

	"github.com/tenchan000517/zeroone-support-sub001/utils"

	"go.uber.org/zap"
	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported for the bot.
const ServiceName = "announcement-bot"

// HealthServer 封装 gRPC 健康检查服务
type HealthServer struct {
	server   *grpc.Server
	health   *health.Server
	listener net.Listener
}

// NewHealthServer 在 address 上监听，但在 Start 之前不提供服务
func NewHealthServer(address string) (*HealthServer, error) {
	lis, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	server := grpc.NewServer()
	healthpb.RegisterHealthServer(server, hs)

	return &HealthServer{
		server:   server,
		health:   hs,
		listener: lis,
	}, nil
}

// Addr 返回实际监听地址
func (h *HealthServer) Addr() string {
	return h.listener.Addr().String()
}

// Start 在后台开始服务
func (h *HealthServer) Start() {
	go func() {
		if err := h.server.Serve(h.listener); err != nil {
			utils.Logger().Warn("gRPC health server stopped", zap.Error(err))
		}
	}()
	utils.Logger().Info("gRPC health server listening", zap.String("addr", h.Addr()))
}

// SetServing 更新健康状态
func (h *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(ServiceName, status)
}

// Stop 优雅关闭服务
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.server.GracefulStop()
}
