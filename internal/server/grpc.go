package server

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/funvibe/concepts/internal/concepts"
)

// NewGRPCServer registers ConceptService and server reflection on a new
// gRPC server.
func NewGRPCServer(s *Service, opts ...grpc.ServerOption) (*grpc.Server, error) {
	if err := registerDescriptor(); err != nil {
		return nil, err
	}
	srv := grpc.NewServer(opts...)
	srv.RegisterService(s.serviceDesc(), &grpcHandler{svc: s})
	reflection.Register(srv)
	return srv, nil
}

type grpcHandler struct {
	svc *Service
}

type unaryFunc func(h *grpcHandler, ctx context.Context, req *structpb.Struct) (interface{}, error)

func (s *Service) serviceDesc() *grpc.ServiceDesc {
	handlers := map[string]unaryFunc{
		MethodEvaluate:      (*grpcHandler).evaluate,
		MethodEvaluateBatch: (*grpcHandler).evaluateBatch,
		MethodListConcepts:  (*grpcHandler).listConcepts,
		MethodInstantiate:   (*grpcHandler).instantiate,
	}
	desc := &grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*interface{})(nil),
		Methods:     []grpc.MethodDesc{},
		Streams:     []grpc.StreamDesc{},
		Metadata:    protoFile,
	}
	for _, name := range serviceMethods {
		desc.Methods = append(desc.Methods, grpc.MethodDesc{
			MethodName: name,
			Handler:    unaryHandler("/"+ServiceName+"/"+name, handlers[name]),
		})
	}
	return desc
}

func unaryHandler(fullMethod string, fn unaryFunc) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		h := srv.(*grpcHandler)
		call := func(ctx context.Context, req interface{}) (interface{}, error) {
			resp, err := fn(h, ctx, req.(*structpb.Struct))
			h.svc.metrics.Served("grpc", fullMethod, status.Code(err).String())
			return resp, err
		}
		if interceptor == nil {
			return call(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, call)
	}
}

// EvaluateRequest selects a concept query either as text or as a concept
// name with type arguments.
type EvaluateRequest struct {
	Query   string   `json:"query,omitempty"`
	Concept string   `json:"concept,omitempty"`
	Args    []string `json:"args,omitempty"`
}

type ListConceptsRequest struct {
	Hidden bool `json:"hidden,omitempty"`
}

type ListConceptsResponse struct {
	Concepts []ConceptInfo `json:"concepts"`
}

type InstantiateCall struct {
	Algorithm string   `json:"algorithm"`
	Args      []string `json:"args"`
}

func (h *grpcHandler) evaluate(ctx context.Context, in *structpb.Struct) (interface{}, error) {
	var req EvaluateRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}
	var (
		v   concepts.Verdict
		err error
	)
	if req.Query != "" {
		v, err = h.svc.engine.EvaluateQuery(ctx, req.Query)
	} else {
		v, err = h.svc.Evaluate(ctx, req.Concept, req.Args)
	}
	if err != nil {
		return nil, h.statusError(ctx, err)
	}
	return toStruct(v)
}

func (h *grpcHandler) evaluateBatch(ctx context.Context, in *structpb.Struct) (interface{}, error) {
	var req EvalRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}
	verdicts, err := h.svc.EvaluateQueries(ctx, req.Queries)
	if err != nil {
		return nil, h.statusError(ctx, err)
	}
	return toStruct(EvalResponse{Verdicts: verdicts})
}

func (h *grpcHandler) listConcepts(_ context.Context, in *structpb.Struct) (interface{}, error) {
	var req ListConceptsRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}
	return toStruct(ListConceptsResponse{Concepts: h.svc.Concepts(req.Hidden)})
}

func (h *grpcHandler) instantiate(ctx context.Context, in *structpb.Struct) (interface{}, error) {
	var req InstantiateCall
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}
	inst, err := h.svc.Instantiate(ctx, req.Algorithm, req.Args)
	if err != nil {
		return nil, h.statusError(ctx, err)
	}
	return toStruct(inst)
}

func (h *grpcHandler) statusError(ctx context.Context, err error) error {
	code := grpcCode(err)
	if code == codes.Internal {
		h.svc.logger.ErrorContext(ctx, "rpc failed", "error", err)
	}
	return status.Error(code, err.Error())
}

// toStruct converts a JSON-tagged value to a Struct.
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	return out, nil
}

func fromStruct(in *structpb.Struct, v interface{}) error {
	data, err := protojson.Marshal(in)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "decoding request: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return status.Errorf(codes.InvalidArgument, "decoding request: %v", err)
	}
	return nil
}

// Client calls ConceptService.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) call(ctx context.Context, method string, req, resp interface{}) error {
	in, err := toStruct(req)
	if err != nil {
		return err
	}
	out := &structpb.Struct{}
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out); err != nil {
		return err
	}
	data, err := protojson.Marshal(out)
	if err != nil {
		return fmt.Errorf("decoding %s response: %w", method, err)
	}
	return json.Unmarshal(data, resp)
}

// Evaluate evaluates a textual query such as "Ordered<int, float>".
func (c *Client) Evaluate(ctx context.Context, query string) (concepts.Verdict, error) {
	var v concepts.Verdict
	err := c.call(ctx, MethodEvaluate, EvaluateRequest{Query: query}, &v)
	return v, err
}

func (c *Client) EvaluateBatch(ctx context.Context, queries []string) ([]concepts.Verdict, error) {
	var resp EvalResponse
	if err := c.call(ctx, MethodEvaluateBatch, EvalRequest{Queries: queries}, &resp); err != nil {
		return nil, err
	}
	return resp.Verdicts, nil
}

func (c *Client) ListConcepts(ctx context.Context, hidden bool) ([]ConceptInfo, error) {
	var resp ListConceptsResponse
	if err := c.call(ctx, MethodListConcepts, ListConceptsRequest{Hidden: hidden}, &resp); err != nil {
		return nil, err
	}
	return resp.Concepts, nil
}

func (c *Client) Instantiate(ctx context.Context, algorithm string, args ...string) (InstanceInfo, error) {
	var inst InstanceInfo
	err := c.call(ctx, MethodInstantiate, InstantiateCall{Algorithm: algorithm, Args: args}, &inst)
	return inst, err
}
