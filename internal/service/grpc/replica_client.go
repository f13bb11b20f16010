package grpcsvc

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ReplicaClient — клиент storefront.Replica.
type ReplicaClient struct {
	conn grpc.ClientConnInterface
}

// NewReplicaClient оборачивает gRPC соединение.
func NewReplicaClient(conn grpc.ClientConnInterface) *ReplicaClient {
	return &ReplicaClient{conn: conn}
}

// GetState запрашивает снимок среза; пустая строка означает всё состояние.
func (c *ReplicaClient) GetState(ctx context.Context, slice string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, methodGetState, wrapperspb.String(slice), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// WatchState вызывает onSnapshot для каждого снимка, пока поток не закроется или callback не вернёт ошибку.
func (c *ReplicaClient) WatchState(ctx context.Context, slice string, onSnapshot func(*structpb.Struct) error, opts ...grpc.CallOption) error {
	stream, err := c.conn.NewStream(ctx, &replicaServiceDesc.Streams[0], methodWatchState, opts...)
	if err != nil {
		return err
	}
	if err := stream.SendMsg(wrapperspb.String(slice)); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}

	for {
		msg := new(structpb.Struct)
		if err := stream.RecvMsg(msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := onSnapshot(msg); err != nil {
			return err
		}
	}
}
