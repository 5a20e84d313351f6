package xfer_test

import (
	"bytes"
	"context"
	"io"

	"github.com/catalyst-cloud/objectmigrate/cmn"
)

// fakeObject is one object stored in a fakeGateway.
type fakeObject struct {
	body    []byte
	headers map[string]string
	hash    string
}

// fakeGateway is an in-memory gateway.Gateway used to exercise the
// Migrator state machine without a real backend.
type fakeGateway struct {
	containers map[string]map[string]*fakeObject // container -> object -> data
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{containers: make(map[string]map[string]*fakeObject)}
}

func (g *fakeGateway) put(container, object string, body []byte, headers map[string]string, hash string) {
	if g.containers[container] == nil {
		g.containers[container] = make(map[string]*fakeObject)
	}
	g.containers[container][object] = &fakeObject{body: body, headers: headers, hash: hash}
}

func (g *fakeGateway) ListContainers(ctx context.Context, tenant string) ([]cmn.Container, error) {
	var out []cmn.Container
	for name := range g.containers {
		out = append(out, cmn.Container{Name: name})
	}
	return out, nil
}

func (g *fakeGateway) StatContainer(ctx context.Context, tenant, container string) (cmn.Container, error) {
	if _, ok := g.containers[container]; !ok {
		return cmn.Container{}, cmn.ErrNotFound
	}
	return cmn.Container{Name: container}, nil
}

func (g *fakeGateway) ListObjects(ctx context.Context, tenant, container string) ([]cmn.ObjectDescriptor, error) {
	var out []cmn.ObjectDescriptor
	for name, obj := range g.containers[container] {
		out = append(out, cmn.ObjectDescriptor{Name: name, Bytes: int64(len(obj.body)), Hash: obj.hash, Headers: obj.headers})
	}
	return out, nil
}

func (g *fakeGateway) StatObject(ctx context.Context, tenant, container, object string) (cmn.ObjectDescriptor, error) {
	objs, ok := g.containers[container]
	if !ok {
		return cmn.ObjectDescriptor{}, cmn.ErrNotFound
	}
	obj, ok := objs[object]
	if !ok {
		return cmn.ObjectDescriptor{}, cmn.ErrNotFound
	}
	return cmn.ObjectDescriptor{Name: object, Bytes: int64(len(obj.body)), Hash: obj.hash, Headers: obj.headers}, nil
}

func (g *fakeGateway) Download(ctx context.Context, tenant, container, object string) (io.ReadCloser, error) {
	obj, ok := g.containers[container][object]
	if !ok {
		return nil, cmn.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.body)), nil
}

func (g *fakeGateway) Upload(ctx context.Context, tenant, container, object string, body io.Reader, size int64, headers map[string]string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	hash := headers["etag-override"]
	delete(headers, "etag-override")
	if hash == "" {
		hash = string(data)
	}
	g.put(container, object, data, headers, hash)
	return nil
}

func (g *fakeGateway) PostContainer(ctx context.Context, tenant, container string, headers map[string]string) error {
	if g.containers[container] == nil {
		g.containers[container] = make(map[string]*fakeObject)
	}
	return nil
}

func (g *fakeGateway) DeleteContainer(ctx context.Context, tenant, container string) error {
	delete(g.containers, container)
	return nil
}

func (g *fakeGateway) DeleteObject(ctx context.Context, tenant, container, object string) error {
	delete(g.containers[container], object)
	return nil
}

func (g *fakeGateway) HeadContainer(ctx context.Context, tenant, container string) (map[string]string, error) {
	if _, ok := g.containers[container]; !ok {
		return nil, cmn.ErrNotFound
	}
	return map[string]string{}, nil
}

func (g *fakeGateway) CopyWithin(ctx context.Context, tenant, srcContainer, srcObject, dstContainer, dstObject string) error {
	obj, ok := g.containers[srcContainer][srcObject]
	if !ok {
		return cmn.ErrNotFound
	}
	g.put(dstContainer, dstObject, obj.body, obj.headers, obj.hash)
	return nil
}

func (g *fakeGateway) StatAccount(ctx context.Context, tenant string) (cmn.AccountStats, error) {
	var stats cmn.AccountStats
	stats.Containers = int64(len(g.containers))
	for _, objs := range g.containers {
		for _, obj := range objs {
			stats.Objects++
			stats.Bytes += int64(len(obj.body))
		}
	}
	return stats, nil
}
