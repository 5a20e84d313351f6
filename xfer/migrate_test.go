package xfer_test

import (
	"context"
	"os"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/catalyst-cloud/objectmigrate/internal/spool"
	"github.com/catalyst-cloud/objectmigrate/xfer"
)

var _ = Describe("Migrator", func() {
	var (
		source, target *fakeGateway
		sp              *spool.Spool
		migrator        *xfer.Migrator
		ctx             = context.Background()
	)

	BeforeEach(func() {
		source = newFakeGateway()
		target = newFakeGateway()

		dir, err := os.MkdirTemp("", "spool-test")
		Expect(err).NotTo(HaveOccurred())
		sp, err = spool.New(dir)
		Expect(err).NotTo(HaveOccurred())

		migrator = &xfer.Migrator{Source: source, Target: target, Spool: sp}
	})

	It("transfers a Normal object end to end and verifies the copy", func() {
		body := []byte("hello world")
		source.put("c1", "obj1", body, map[string]string{}, string(body))

		src, err := source.StatObject(ctx, "t", "c1", "obj1")
		Expect(err).NotTo(HaveOccurred())

		result := migrator.MigrateObject(ctx, "t", "c1", "obj1", src)
		Expect(result.State).To(Equal(xfer.Transferred))

		got, err := target.StatObject(ctx, "t", "c1", "obj1")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Hash).To(Equal(src.Hash))
	})

	It("skips an object already present with a matching hash on the target", func() {
		body := []byte("same bytes")
		source.put("c1", "obj1", body, map[string]string{}, "matching-hash")
		target.put("c1", "obj1", body, map[string]string{}, "matching-hash")

		src, err := source.StatObject(ctx, "t", "c1", "obj1")
		Expect(err).NotTo(HaveOccurred())

		result := migrator.MigrateObject(ctx, "t", "c1", "obj1", src)
		Expect(result.State).To(Equal(xfer.Skipped))
	})

	It("creates a zero-body manifest object for a DLO and skips verification", func() {
		source.put("c1", "big", []byte{}, map[string]string{
			"x-object-manifest": "c1_segments/big/",
		}, "")

		src, err := source.StatObject(ctx, "t", "c1", "big")
		Expect(err).NotTo(HaveOccurred())

		result := migrator.MigrateObject(ctx, "t", "c1", "big", src)
		Expect(result.State).To(Equal(xfer.Transferred))

		got, err := target.StatObject(ctx, "t", "c1", "big")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Headers["x-object-manifest"]).To(Equal("c1_segments/big/"))
	})
})
