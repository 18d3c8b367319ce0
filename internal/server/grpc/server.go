// Package grpc exposes the classifier as a unary gRPC service.
package grpc

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/ekisa-team/herbarium/internal/labels"
	"github.com/ekisa-team/herbarium/internal/service"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "herbarium.v1.Classifier"

	// AnalyzeMethod is the full method name of Analyze.
	AnalyzeMethod = "/" + ServiceName + "/Analyze"

	// LangMetadataKey selects the label language of a call.
	LangMetadataKey = "lang"
)

// Classifier predicts the label of an encoded image.
type Classifier interface {
	ClassifyBytes(ctx context.Context, data []byte, lang labels.Lang) (*service.Prediction, error)
}

// ClassifierServer is the server API of the herbarium.v1.Classifier service.
type ClassifierServer interface {
	Analyze(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error)
}

// ServiceDesc describes herbarium.v1.Classifier. Messages are well-known
// wrapper types so no generated code is needed.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ClassifierServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Analyze",
			Handler:    analyzeHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "herbarium/v1/classifier.proto",
}

func analyzeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(ClassifierServer).Analyze(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: AnalyzeMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ClassifierServer).Analyze(ctx, req.(*wrapperspb.BytesValue))
	}

	return interceptor(ctx, in, info, handler)
}

// Server serves the classifier and the standard health service.
type Server struct {
	server     *grpc.Server
	health     *health.Server
	classifier Classifier
}

// New creates a server and marks the classifier service as serving.
func New(classifier Classifier, maxRecvBytes int) *Server {
	opts := []grpc.ServerOption{grpc.ChainUnaryInterceptor(logUnary)}
	if maxRecvBytes > 0 {
		opts = append(opts, grpc.MaxRecvMsgSize(maxRecvBytes))
	}

	s := &Server{
		server:     grpc.NewServer(opts...),
		health:     health.NewServer(),
		classifier: classifier,
	}

	s.server.RegisterService(&ServiceDesc, s)
	healthpb.RegisterHealthServer(s.server, s.health)

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return s
}

// Analyze classifies the image bytes of in.
func (s *Server) Analyze(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	lang := labels.English
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(LangMetadataKey); len(v) > 0 {
			lang = labels.Lang(v[0])
		}
	}

	prediction, err := s.classifier.ClassifyBytes(ctx, in.GetValue(), lang)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotAnImage), errors.Is(err, service.ErrUndecodable):
			return nil, status.Error(codes.InvalidArgument, err.Error())
		case errors.Is(err, context.Canceled):
			return nil, status.Error(codes.Canceled, err.Error())
		case errors.Is(err, context.DeadlineExceeded):
			return nil, status.Error(codes.DeadlineExceeded, err.Error())
		}

		slog.ErrorContext(ctx, "Failed to classify image", "error", err)
		return nil, status.Error(codes.Internal, "failed to classify image")
	}

	return wrapperspb.String(prediction.Label), nil
}

// Serve accepts connections on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	slog.Info("gRPC server listening", "addr", lis.Addr().String())

	if err := s.server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}

	return nil
}

// Stop marks the services as not serving and drains in-flight calls until ctx is done.
func (s *Server) Stop(ctx context.Context) {
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-ctx.Done():
		s.server.Stop()
	}
}

func logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	slog.Info("gRPC call handled",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration", time.Since(start),
	)

	return resp, err
}

// Client calls herbarium.v1.Classifier.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a client on cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Analyze sends an encoded image and returns the predicted label.
func (c *Client) Analyze(ctx context.Context, image []byte, lang labels.Lang, opts ...grpc.CallOption) (string, error) {
	if lang != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, LangMetadataKey, string(lang))
	}

	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, AnalyzeMethod, wrapperspb.Bytes(image), out, opts...); err != nil {
		return "", err
	}

	return out.GetValue(), nil
}
