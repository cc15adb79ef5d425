package tracing

import (
	"context"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// UnaryServerInterceptor times each unary call as a hop and returns the
// merged summary in the response header metadata.
func UnaryServerInterceptor(coordinator *Coordinator) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if !coordinator.Active() {
			return handler(ctx, req)
		}

		hop, ctx := coordinator.Begin(ctx, info.FullMethod, incoming(ctx, coordinator.MetadataKey()))

		resp, err := handler(ctx, req)

		if value, ok := coordinator.Finish(hop, HTTPStatus(err)); ok {
			if serr := grpc.SetHeader(ctx, metadata.Pairs(coordinator.MetadataKey(), value)); serr != nil {
				coordinator.logger.Hop(hop.ID.String(), hop.URL).Debug("duration header not sent", zap.Error(serr))
			}
		}

		return resp, err
	}
}

// StreamServerInterceptor times each stream as a hop. Headers are usually
// gone by the time a stream ends, so the summary travels in the trailer.
func StreamServerInterceptor(coordinator *Coordinator) grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		if !coordinator.Active() {
			return handler(srv, ss)
		}

		hop, ctx := coordinator.Begin(ss.Context(), info.FullMethod, incoming(ss.Context(), coordinator.MetadataKey()))

		err := handler(srv, &hopServerStream{ServerStream: ss, ctx: ctx})

		if value, ok := coordinator.Finish(hop, HTTPStatus(err)); ok {
			ss.SetTrailer(metadata.Pairs(coordinator.MetadataKey(), value))
		}

		return err
	}
}

// hopServerStream wraps grpc.ServerStream with the hop context
type hopServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *hopServerStream) Context() context.Context {
	return s.ctx
}

// UnaryClientInterceptor forwards the hop's current summary to the callee
// and records the summary it returns.
func UnaryClientInterceptor(coordinator *Coordinator) grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply interface{},
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		hop, ok := HopFromContext(ctx)
		if !ok || !coordinator.Active() {
			return invoker(ctx, method, req, reply, cc, opts...)
		}

		if current := hop.Current(); current != "" {
			ctx = metadata.AppendToOutgoingContext(ctx, coordinator.MetadataKey(), current)
		}

		var header metadata.MD
		err := invoker(ctx, method, req, reply, cc, append(opts, grpc.Header(&header))...)

		if vals := header.Get(coordinator.MetadataKey()); len(vals) > 0 {
			hop.Observe(vals[0])
		}

		return err
	}
}

func incoming(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if vals := md.Get(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// HTTPStatus maps a gRPC error onto the HTTP status recorded in the trace.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch status.Code(err) {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.Aborted:
		return http.StatusConflict
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Canceled:
		return 499
	case codes.Unimplemented:
		return http.StatusNotImplemented
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
