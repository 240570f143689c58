package server

import (
	"context"
	"net"
	"testing"

	"github.com/jhump/protoreflect/grpcreflect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/funvibe/concepts/internal/metrics"
)

type GRPCTestSuite struct {
	suite.Suite
	lis     *bufconn.Listener
	srv     *grpc.Server
	conn    *grpc.ClientConn
	client  *Client
	metrics *metrics.Metrics
	ctx     context.Context
}

func TestGRPCTestSuite(t *testing.T) {
	suite.Run(t, new(GRPCTestSuite))
}

func (s *GRPCTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.metrics = metrics.New(prometheus.NewRegistry())
	svc := newTestService(s.T(), WithMetrics(s.metrics))

	srv, err := NewGRPCServer(svc)
	s.Require().NoError(err)
	s.srv = srv
	s.lis = bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(s.lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return s.lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	s.Require().NoError(err)
	s.conn = conn
	s.client = NewClient(conn)
}

func (s *GRPCTestSuite) TearDownTest() {
	s.conn.Close()
	s.srv.Stop()
}

func (s *GRPCTestSuite) TestEvaluate() {
	v, err := s.client.Evaluate(s.ctx, "CompatibleArithmetic<Complex<float>, float>")
	s.Require().NoError(err)
	s.True(v.Satisfied)
	s.Equal([]string{"Complex<float>", "float"}, v.Args)

	v, err = s.client.Evaluate(s.ctx, "CompatibleArithmetic<float, Complex<float>>")
	s.Require().NoError(err)
	s.False(v.Satisfied)
	s.Require().NotNil(v.Failure)
	s.NotEmpty(v.Failure.Chain())

	s.Equal(2.0, testutil.ToFloat64(s.metrics.Requests.WithLabelValues("grpc", "/"+ServiceName+"/"+MethodEvaluate, "OK")))
}

func (s *GRPCTestSuite) TestEvaluateByName() {
	var v struct {
		Satisfied bool `json:"satisfied"`
	}
	err := s.client.call(s.ctx, MethodEvaluate, EvaluateRequest{Concept: "Allocator", Args: []string{"Allocator<int>"}}, &v)
	s.Require().NoError(err)
	s.True(v.Satisfied)
}

func (s *GRPCTestSuite) TestErrorCodes() {
	tests := []struct {
		query string
		code  codes.Code
	}{
		{query: "Nope<int>", code: codes.NotFound},
		{query: "Ordered<Gizmo>", code: codes.InvalidArgument},
		{query: "Ordered<int", code: codes.InvalidArgument},
		{query: "Ordered<int, int, int>", code: codes.InvalidArgument},
	}
	for _, tt := range tests {
		s.Run(tt.query, func() {
			_, err := s.client.Evaluate(s.ctx, tt.query)
			s.Require().Error(err)
			s.Equal(tt.code, status.Code(err), err.Error())
		})
	}
}

func (s *GRPCTestSuite) TestEvaluateBatch() {
	verdicts, err := s.client.EvaluateBatch(s.ctx, []string{
		"ForwardIterator<HashSet<int>::iterator>",
		"BidirectionalIterator<HashSet<int>::iterator>",
	})
	s.Require().NoError(err)
	s.Require().Len(verdicts, 2)
	s.True(verdicts[0].Satisfied)
	s.False(verdicts[1].Satisfied)
}

func (s *GRPCTestSuite) TestListConcepts() {
	visible, err := s.client.ListConcepts(s.ctx, false)
	s.Require().NoError(err)
	all, err := s.client.ListConcepts(s.ctx, true)
	s.Require().NoError(err)
	s.Greater(len(all), len(visible))
	s.Equal("Boolean", visible[0].Name)
}

func (s *GRPCTestSuite) TestInstantiate() {
	inst, err := s.client.Instantiate(s.ctx, "iter_swap", "int*", "int*")
	s.Require().NoError(err)
	s.Equal("fn(int*, int*) -> void", inst.Signature)

	_, err = s.client.Instantiate(s.ctx, "iter_swap", "int*", "const int*")
	s.Equal(codes.FailedPrecondition, status.Code(err))
	s.Contains(status.Convert(err).Message(), "C002")

	_, err = s.client.Instantiate(s.ctx, "sort", "int*")
	s.Equal(codes.NotFound, status.Code(err))
}

func (s *GRPCTestSuite) TestReflection() {
	rc := grpcreflect.NewClientAuto(s.ctx, s.conn)
	defer rc.Reset()

	services, err := rc.ListServices()
	s.Require().NoError(err)
	s.Contains(services, ServiceName)

	sd, err := rc.ResolveService(ServiceName)
	s.Require().NoError(err)
	for _, name := range serviceMethods {
		md := sd.FindMethodByName(name)
		s.Require().NotNil(md, name)
		s.Equal("google.protobuf.Struct", md.GetInputType().GetFullyQualifiedName())
		s.Equal("google.protobuf.Struct", md.GetOutputType().GetFullyQualifiedName())
	}
}
