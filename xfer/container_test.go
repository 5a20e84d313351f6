package xfer_test

import (
	"context"
	"os"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/catalyst-cloud/objectmigrate/internal/spool"
	"github.com/catalyst-cloud/objectmigrate/xfer"
)

var _ = Describe("ContainerMigrator", func() {
	var (
		source, target *fakeGateway
		cmig           *xfer.ContainerMigrator
		ctx            = context.Background()
	)

	BeforeEach(func() {
		source = newFakeGateway()
		target = newFakeGateway()

		dir, err := os.MkdirTemp("", "spool-test")
		Expect(err).NotTo(HaveOccurred())
		sp, err := spool.New(dir)
		Expect(err).NotTo(HaveOccurred())

		cmig = &xfer.ContainerMigrator{
			Source:   source,
			Target:   target,
			Migrator: &xfer.Migrator{Source: source, Target: target, Spool: sp},
		}
	})

	It("creates the missing target container, then migrates every object", func() {
		source.put("c1", "a", []byte("aaa"), map[string]string{}, "aaa")
		source.put("c1", "b", []byte("bbb"), map[string]string{}, "bbb")
		source.containers["c1"]["a"].headers = map[string]string{}

		result := cmig.MigrateContainer(ctx, "t", "c1")
		Expect(result.CreateErr).NotTo(HaveOccurred())
		Expect(result.Created).To(BeTrue())
		Expect(result.Objects).To(HaveLen(2))

		for _, obj := range result.Objects {
			Expect(obj.State).To(Equal(xfer.Transferred))
		}
	})

	It("records a create failure without reading any objects when the target container cannot be made", func() {
		source.put("c1", "a", []byte("aaa"), map[string]string{}, "aaa")

		brokenTarget := &failingContainerGateway{fakeGateway: target}
		cmig.Target = brokenTarget
		cmig.Migrator.Target = brokenTarget

		result := cmig.MigrateContainer(ctx, "t", "c1")
		Expect(result.CreateErr).To(HaveOccurred())
		Expect(result.Objects).To(BeEmpty())
	})
})

// failingContainerGateway always fails PostContainer, used to exercise
// C6's "creation fails -> skip every object" path.
type failingContainerGateway struct {
	*fakeGateway
}

func (f *failingContainerGateway) PostContainer(ctx context.Context, tenant, container string, headers map[string]string) error {
	return errCreateFailed
}

var errCreateFailed = &createError{}

type createError struct{}

func (*createError) Error() string { return "create failed" }
