package reconcile_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/catalyst-cloud/objectmigrate/cmn"
	"github.com/catalyst-cloud/objectmigrate/gateway"
	"github.com/catalyst-cloud/objectmigrate/reconcile"
)

// fakeGateway is a minimal in-memory gateway.Gateway for reconcile
// tests; container membership is what these tests exercise, so object
// bodies are unused.
type fakeGateway struct {
	containers map[string]map[string]bool
}

func newFakeGateway(containers map[string][]string) *fakeGateway {
	g := &fakeGateway{containers: make(map[string]map[string]bool)}
	for c, objs := range containers {
		g.containers[c] = make(map[string]bool)
		for _, o := range objs {
			g.containers[c][o] = true
		}
	}
	return g
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
	for name := range g.containers[container] {
		out = append(out, cmn.ObjectDescriptor{Name: name})
	}
	return out, nil
}

func (g *fakeGateway) StatObject(ctx context.Context, tenant, container, object string) (cmn.ObjectDescriptor, error) {
	if !g.containers[container][object] {
		return cmn.ObjectDescriptor{}, cmn.ErrNotFound
	}
	return cmn.ObjectDescriptor{Name: object}, nil
}

func (g *fakeGateway) Download(ctx context.Context, tenant, container, object string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(nil)), nil
}

func (g *fakeGateway) Upload(ctx context.Context, tenant, container, object string, body io.Reader, size int64, headers map[string]string) error {
	return nil
}

func (g *fakeGateway) PostContainer(ctx context.Context, tenant, container string, headers map[string]string) error {
	if g.containers[container] == nil {
		g.containers[container] = make(map[string]bool)
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
	if g.containers[dstContainer] == nil {
		g.containers[dstContainer] = make(map[string]bool)
	}
	g.containers[dstContainer][dstObject] = true
	return nil
}

func (g *fakeGateway) StatAccount(ctx context.Context, tenant string) (cmn.AccountStats, error) {
	var stats cmn.AccountStats
	stats.Containers = int64(len(g.containers))
	for _, objs := range g.containers {
		stats.Objects += int64(len(objs))
	}
	return stats, nil
}

func TestDeletedSweepReportsNonexistentContainer(t *testing.T) {
	migration := newFakeGateway(map[string][]string{"gone": {}, "alive": {"f.txt"}})
	regionA := newFakeGateway(map[string][]string{"alive": {"f.txt"}})

	source := map[string]gateway.Gateway{"region-a": regionA}

	findings, err := reconcile.DeletedSweep(
		context.Background(), migration, source, []string{"region-a"},
		reconcile.ActionReport, func(string, ...interface{}) {},
	)
	if err != nil {
		t.Fatalf("DeletedSweep: %v", err)
	}

	var foundGone bool
	for _, f := range findings {
		if f.Container == "gone" && f.Object == "" {
			foundGone = true
		}
		if f.Container == "alive" {
			t.Fatalf("container 'alive' should not be reported missing: %+v", f)
		}
	}
	if !foundGone {
		t.Fatalf("expected a finding for the 'gone' container, got %+v", findings)
	}
}

func TestDeletedSweepDeleteAction(t *testing.T) {
	migration := newFakeGateway(map[string][]string{"gone": {}})
	source := map[string]gateway.Gateway{}

	findings, err := reconcile.DeletedSweep(
		context.Background(), migration, source, nil,
		reconcile.ActionApply, func(string, ...interface{}) {},
	)
	if err != nil {
		t.Fatalf("DeletedSweep: %v", err)
	}
	if len(findings) != 1 || !findings[0].Applied {
		t.Fatalf("expected one applied deletion, got %+v", findings)
	}
	if _, err := migration.StatContainer(context.Background(), "", "gone"); err != cmn.ErrNotFound {
		t.Fatalf("expected 'gone' container to be deleted")
	}
}

func TestDuplicateCollisionFindsIntersection(t *testing.T) {
	gwA := newFakeGateway(map[string][]string{"shared": {"x"}, "only-a": {}})
	gwB := newFakeGateway(map[string][]string{"shared": {}, "only-b": {}})

	suffixes := map[string]string{"region-a": "a", "region-b": "b"}

	findings, err := reconcile.DuplicateCollision(
		context.Background(), "region-a", "region-b", gwA, gwB, suffixes, reconcile.ActionReport,
	)
	if err != nil {
		t.Fatalf("DuplicateCollision: %v", err)
	}
	if len(findings) != 1 || findings[0].Container != "shared" {
		t.Fatalf("expected exactly one duplicate 'shared', got %+v", findings)
	}
}

func TestDuplicateCollisionRename(t *testing.T) {
	gwA := newFakeGateway(map[string][]string{"shared": {"x"}})
	gwB := newFakeGateway(map[string][]string{"shared": {"x"}})

	suffixes := map[string]string{"region-a": "a", "region-b": "b"}

	findings, err := reconcile.DuplicateCollision(
		context.Background(), "region-a", "region-b", gwA, gwB, suffixes, reconcile.ActionApply,
	)
	if err != nil {
		t.Fatalf("DuplicateCollision: %v", err)
	}
	if len(findings) != 1 || !findings[0].Renamed {
		t.Fatalf("expected a successful rename, got %+v", findings)
	}
	if !gwA.containers["shared-a"]["x"] {
		t.Fatalf("expected object copied into renamed container in region a")
	}
	if !gwB.containers["shared-b"]["x"] {
		t.Fatalf("expected object copied into renamed container in region b")
	}
}
