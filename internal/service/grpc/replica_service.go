// Package grpcsvc отдаёт состояние реплики storefront по gRPC.
//
// Сервис описан вручную через grpc.ServiceDesc и использует well-known типы protobuf:
// в запросе google.protobuf.StringValue с именем среза (пустая строка означает всё состояние),
// в ответе google.protobuf.Struct с JSON-представлением состояния.
package grpcsvc

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/vladislavdragonenkov/storefront/internal/state"
	"github.com/vladislavdragonenkov/storefront/internal/store"
)

const (
	ServiceName = "storefront.Replica"

	methodGetState   = "/" + ServiceName + "/GetState"
	methodWatchState = "/" + ServiceName + "/WatchState"
)

// StateSource — store реплики.
type StateSource interface {
	State() state.RootState
	Subscribe(listener store.Listener) (unsubscribe func())
}

// ReplicaServer — серверная сторона storefront.Replica.
type ReplicaServer interface {
	GetState(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	WatchState(req *wrapperspb.StringValue, stream grpc.ServerStream) error
}

// ReplicaService отдаёт снимки состояния и поток изменений.
type ReplicaService struct {
	source StateSource
	logger *log.Entry
}

// NewReplicaService создаёт сервис поверх store реплики.
func NewReplicaService(source StateSource, logger *log.Entry) *ReplicaService {
	if logger == nil {
		logger = log.WithField("component", "replica-grpc")
	}
	return &ReplicaService{source: source, logger: logger}
}

// Register регистрирует сервис на gRPC сервере.
func Register(server grpc.ServiceRegistrar, service ReplicaServer) {
	server.RegisterService(&replicaServiceDesc, service)
}

// GetState возвращает текущий снимок всего состояния или одного среза.
func (s *ReplicaService) GetState(_ context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	return snapshot(s.source.State(), req.GetValue())
}

// WatchState отправляет текущий снимок, затем новый снимок после каждого dispatch.
// Обновления, пришедшие пока клиент читает предыдущее, склеиваются в одно.
func (s *ReplicaService) WatchState(req *wrapperspb.StringValue, stream grpc.ServerStream) error {
	slice := req.GetValue()
	if _, err := snapshot(state.InitialRootState(), slice); err != nil {
		return err
	}

	changed := make(chan struct{}, 1)
	unsubscribe := s.source.Subscribe(func(state.Action, state.RootState, state.RootState) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	ctx := stream.Context()
	s.logger.WithField("slice", slice).Debug("state watcher connected")
	defer s.logger.WithField("slice", slice).Debug("state watcher disconnected")

	for {
		msg, err := snapshot(s.source.State(), slice)
		if err != nil {
			return err
		}
		if err := stream.SendMsg(msg); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return status.FromContextError(ctx.Err()).Err()
		case <-changed:
		}
	}
}

func snapshot(root state.RootState, slice string) (*structpb.Struct, error) {
	var value any = root
	if slice != "" {
		part, ok := root.Slice(state.Domain(slice))
		if !ok {
			return nil, status.Errorf(codes.NotFound, "unknown state slice %q", slice)
		}
		value = part
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode state: %v", err)
	}
	msg := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, msg); err != nil {
		return nil, status.Errorf(codes.Internal, "convert state: %v", err)
	}
	return msg, nil
}

func getStateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(wrapperspb.StringValue)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReplicaServer).GetState(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetState}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ReplicaServer).GetState(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, req, info, handler)
}

func watchStateHandler(srv any, stream grpc.ServerStream) error {
	req := new(wrapperspb.StringValue)
	if err := stream.RecvMsg(req); err != nil {
		return fmt.Errorf("receive watch request: %w", err)
	}
	return srv.(ReplicaServer).WatchState(req, stream)
}

var replicaServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ReplicaServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetState", Handler: getStateHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "WatchState", Handler: watchStateHandler, ServerStreams: true},
	},
	Metadata: "storefront/replica.proto",
}

var _ ReplicaServer = (*ReplicaService)(nil)
