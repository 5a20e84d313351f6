package xfer_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/catalyst-cloud/objectmigrate/cmn"
	"github.com/catalyst-cloud/objectmigrate/cos"
	"github.com/catalyst-cloud/objectmigrate/xfer"
)

var _ = Describe("Decide", func() {
	var src cmn.ObjectDescriptor

	BeforeEach(func() {
		src = cmn.ObjectDescriptor{
			Name:  "file.bin",
			Bytes: 1024,
			Hash:  "abc123",
		}
	})

	It("transfers when the target is absent", func() {
		decision, _ := xfer.Decide(cmn.VariantNormal, src, nil)
		Expect(decision).To(Equal(cmn.DecisionTransfer))
	})

	It("skips a Normal object whose target etag matches the source hash", func() {
		target := cmn.ObjectDescriptor{Hash: "abc123"}
		decision, reason := xfer.Decide(cmn.VariantNormal, src, &target)
		Expect(decision).To(Equal(cmn.DecisionSkip))
		Expect(reason).To(ContainSubstring("etag"))
	})

	It("transfers a Normal object whose target etag differs", func() {
		target := cmn.ObjectDescriptor{Hash: "different"}
		decision, _ := xfer.Decide(cmn.VariantNormal, src, &target)
		Expect(decision).To(Equal(cmn.DecisionTransfer))
	})

	It("skips an S3Multipart object when the target's old-hash header matches", func() {
		src.Hash = "d41d8cd98f00b204e9800998ecf8427e-3"
		target := cmn.ObjectDescriptor{
			Hash:    "irrelevant-whole-object-etag",
			Headers: map[string]string{cos.HdrOldHash: src.Hash},
		}
		decision, _ := xfer.Decide(cmn.VariantS3Multipart, src, &target)
		Expect(decision).To(Equal(cmn.DecisionSkip))
	})

	It("transfers an S3Multipart object when old-hash does not match", func() {
		src.Hash = "d41d8cd98f00b204e9800998ecf8427e-3"
		target := cmn.ObjectDescriptor{
			Headers: map[string]string{cos.HdrOldHash: "stale-hash-9"},
		}
		decision, _ := xfer.Decide(cmn.VariantS3Multipart, src, &target)
		Expect(decision).To(Equal(cmn.DecisionTransfer))
	})

	It("skips a DLO when target content-length matches source content-length", func() {
		src.Headers = map[string]string{
			cos.HdrObjectManifest: "segments/file.bin",
			cos.HdrContentLength:  "1024",
		}
		target := cmn.ObjectDescriptor{
			Headers: map[string]string{cos.HdrContentLength: "1024"},
		}
		decision, reason := xfer.Decide(cmn.VariantDLO, src, &target)
		Expect(decision).To(Equal(cmn.DecisionSkip))
		Expect(reason).To(ContainSubstring("DLO"))
	})

	It("transfers a DLO when target content-length differs", func() {
		src.Headers = map[string]string{
			cos.HdrObjectManifest: "segments/file.bin",
			cos.HdrContentLength:  "1024",
		}
		target := cmn.ObjectDescriptor{
			Headers: map[string]string{cos.HdrContentLength: "2048"},
		}
		decision, _ := xfer.Decide(cmn.VariantDLO, src, &target)
		Expect(decision).To(Equal(cmn.DecisionTransfer))
	})
})
