package xfer_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/catalyst-cloud/objectmigrate/cmn"
	"github.com/catalyst-cloud/objectmigrate/cos"
	"github.com/catalyst-cloud/objectmigrate/xfer"
)

var _ = Describe("Classify", func() {
	It("classifies a DLO by x-object-manifest, even if also oversized", func() {
		obj := cmn.ObjectDescriptor{
			Bytes:   cos.GB5 + 1,
			Headers: map[string]string{cos.HdrObjectManifest: "container/prefix"},
		}
		Expect(xfer.Classify(obj)).To(Equal(cmn.VariantDLO))
	})

	It("classifies an SLO by x-static-large-object", func() {
		obj := cmn.ObjectDescriptor{
			Headers: map[string]string{cos.HdrStaticLargeObj: "True"},
		}
		Expect(xfer.Classify(obj)).To(Equal(cmn.VariantSLO))
	})

	It("classifies an oversized object as SingleLarge even with a multipart-shaped hash", func() {
		obj := cmn.ObjectDescriptor{
			Bytes: cos.GB5 + 1,
			Hash:  "d41d8cd98f00b204e9800998ecf8427e-3",
		}
		Expect(xfer.Classify(obj)).To(Equal(cmn.VariantSingleLarge))
	})

	It("classifies a within-threshold multipart-hash object as S3Multipart", func() {
		obj := cmn.ObjectDescriptor{
			Bytes: 1024,
			Hash:  "d41d8cd98f00b204e9800998ecf8427e-3",
		}
		Expect(xfer.Classify(obj)).To(Equal(cmn.VariantS3Multipart))
	})

	It("classifies a plain small object as Normal", func() {
		obj := cmn.ObjectDescriptor{
			Bytes: 1024,
			Hash:  "d41d8cd98f00b204e9800998ecf8427e",
		}
		Expect(xfer.Classify(obj)).To(Equal(cmn.VariantNormal))
	})
})
