// Package remote exposes the unary methods of a gRPC service as an
// extension set. Descriptors are derived from the service's .proto file:
// each input message field becomes one argument, in declaration order, and
// the first field of the response is the call's result.
package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/funvibe/macroext/internal/config"
	"github.com/funvibe/macroext/pkg/ext"
)

// Set is an extension set backed by a gRPC service.
type Set struct {
	Name    string
	Service *desc.ServiceDescriptor

	conn    grpc.ClientConnInterface
	close   func() error
	timeout time.Duration
	log     *zap.SugaredLogger

	descs   []*ext.Descriptor
	skipped map[string]error
}

type Option func(*Set)

// WithTimeout bounds each call. Defaults to config.DefaultDialTimeoutSeconds.
func WithTimeout(d time.Duration) Option {
	return func(s *Set) { s.timeout = d }
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *Set) { s.log = log }
}

// LoadService parses protoFile with p and returns the named service.
func LoadService(p protoparse.Parser, protoFile, service string) (*desc.ServiceDescriptor, error) {
	fds, err := p.ParseFiles(protoFile)
	if err != nil {
		return nil, fmt.Errorf("failed to parse proto: %w", err)
	}
	for _, fd := range fds {
		if sd := fd.FindService(service); sd != nil {
			return sd, nil
		}
	}
	return nil, fmt.Errorf("service %s not found in %s", service, protoFile)
}

// Dial creates a plaintext client connection to target.
func Dial(target string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	return grpc.NewClient(target, opts...)
}

// Open loads and connects the remote set described by cfg.
func Open(cfg config.Remote, log *zap.SugaredLogger) (*Set, error) {
	sd, err := LoadService(protoparse.Parser{ImportPaths: cfg.ImportPaths}, cfg.Proto, cfg.Service)
	if err != nil {
		return nil, fmt.Errorf("remote set %s: %w", cfg.Set, err)
	}
	conn, err := Dial(cfg.Target)
	if err != nil {
		return nil, fmt.Errorf("remote set %s: %w", cfg.Set, err)
	}
	s := NewSet(cfg.Set, sd, conn,
		WithTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second),
		WithLogger(log))
	s.close = conn.Close
	return s, nil
}

// NewSet derives descriptors for the unary methods of sd, invoking them
// over conn. Methods whose messages have no argument mapping are skipped;
// see Skipped.
func NewSet(name string, sd *desc.ServiceDescriptor, conn grpc.ClientConnInterface, opts ...Option) *Set {
	s := &Set{
		Name:    name,
		Service: sd,
		conn:    conn,
		timeout: config.DefaultDialTimeoutSeconds * time.Second,
		skipped: make(map[string]error),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = zap.NewNop().Sugar()
	}
	s.log = s.log.Named("remote").With("set", name)

	for _, md := range sd.GetMethods() {
		d, err := s.descriptorFor(md)
		if err != nil {
			s.skipped[md.GetName()] = err
			s.log.Warnw("skipping remote method", "method", md.GetName(), "error", err)
			continue
		}
		s.descs = append(s.descs, d)
	}
	return s
}

// Descriptors returns the set's extension functions in service order.
func (s *Set) Descriptors() []*ext.Descriptor { return s.descs }

// Skipped maps unbindable method names to the reason.
func (s *Set) Skipped() map[string]error { return s.skipped }

// Register adds the set's descriptors to reg under s.Name.
func (s *Set) Register(reg *ext.Registry) error {
	return reg.Register(s.Name, s.descs...)
}

// Close releases the connection opened by Open.
func (s *Set) Close() error {
	if s.close == nil {
		return nil
	}
	err := s.close()
	s.close = nil
	return err
}

func (s *Set) descriptorFor(md *desc.MethodDescriptor) (*ext.Descriptor, error) {
	if md.IsClientStreaming() || md.IsServerStreaming() {
		return nil, fmt.Errorf("%w: streaming method", ext.ErrUnsupportedShape)
	}
	fields := md.GetInputType().GetFields()
	types := make([]ext.ArgType, len(fields))
	for i, fd := range fields {
		t, err := argTypeOf(fd)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", fd.GetName(), err)
		}
		types[i] = t
	}
	h := &methodHandler{
		set:  s,
		md:   md,
		path: "/" + s.Service.GetFullyQualifiedName() + "/" + md.GetName(),
	}
	return ext.NewDescriptor(md.GetName(), h, types...)
}

type methodHandler struct {
	set  *Set
	md   *desc.MethodDescriptor
	path string
}

func (h *methodHandler) Handle(name string, args []any) (ext.Result, error) {
	req := dynamic.NewMessage(h.md.GetInputType())
	fields := h.md.GetInputType().GetFields()
	for i, arg := range args {
		if i >= len(fields) {
			return ext.NoResult, fmt.Errorf("%s: %d arguments for %d fields", name, len(args), len(fields))
		}
		v, err := toProto(fields[i], arg)
		if err != nil {
			return ext.NoResult, fmt.Errorf("%s: field %s: %w", name, fields[i].GetName(), err)
		}
		if err := req.TrySetField(fields[i], v); err != nil {
			return ext.NoResult, fmt.Errorf("%s: field %s: %w", name, fields[i].GetName(), err)
		}
	}

	resp := dynamic.NewMessage(h.md.GetOutputType())
	ctx, cancel := context.WithTimeout(context.Background(), h.set.timeout)
	defer cancel()

	start := time.Now()
	if err := h.set.conn.Invoke(ctx, h.path, req, resp); err != nil {
		return ext.NoResult, fmt.Errorf("RPC failed: %w", err)
	}
	h.set.log.Debugw("remote call", "method", h.path, "elapsed", time.Since(start))

	out := resp.GetMessageDescriptor().GetFields()
	if len(out) == 0 {
		return ext.NoResult, nil
	}
	return ext.Text(fromProto(resp.GetField(out[0]))), nil
}
