package server

import (
	"fmt"
	"sync"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/builder"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "concepts.v1.ConceptService"
	protoFile   = "concepts/v1/concept_service.proto"
)

// Methods of ConceptService. Every request and response is a
// google.protobuf.Struct.
const (
	MethodEvaluate      = "Evaluate"
	MethodEvaluateBatch = "EvaluateBatch"
	MethodListConcepts  = "ListConcepts"
	MethodInstantiate   = "Instantiate"
)

var serviceMethods = []string{MethodEvaluate, MethodEvaluateBatch, MethodListConcepts, MethodInstantiate}

var (
	registerOnce sync.Once
	registerErr  error
)

// registerDescriptor builds the service's file descriptor and adds it to
// the global registry, so server reflection can describe the service.
func registerDescriptor() error {
	registerOnce.Do(func() {
		fd, err := buildDescriptor()
		if err != nil {
			registerErr = err
			return
		}
		if _, err := protoregistry.GlobalFiles.FindFileByPath(protoFile); err == nil {
			return
		}
		file, err := protodesc.NewFile(fd.AsFileDescriptorProto(), protoregistry.GlobalFiles)
		if err != nil {
			registerErr = fmt.Errorf("building %s: %w", protoFile, err)
			return
		}
		registerErr = protoregistry.GlobalFiles.RegisterFile(file)
	})
	return registerErr
}

func buildDescriptor() (*desc.FileDescriptor, error) {
	st, err := desc.LoadMessageDescriptorForMessage(&structpb.Struct{})
	if err != nil {
		return nil, fmt.Errorf("loading google.protobuf.Struct: %w", err)
	}
	svc := builder.NewService("ConceptService")
	for _, name := range serviceMethods {
		svc.AddMethod(builder.NewMethod(name,
			builder.RpcTypeImportedMessage(st, false),
			builder.RpcTypeImportedMessage(st, false)))
	}
	fd, err := builder.NewFile(protoFile).
		SetPackageName("concepts.v1").
		SetProto3(true).
		AddService(svc).
		Build()
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", ServiceName, err)
	}
	return fd, nil
}
