package xfer

import (
	"github.com/catalyst-cloud/objectmigrate/cmn"
	"github.com/catalyst-cloud/objectmigrate/cos"
)

// Decide is the Skip Decider (C4): given a source descriptor and an
// optional target descriptor (nil if the target object does not
// exist), returns Transfer unless one of the skip rules fires.
func Decide(variant cmn.ObjectVariant, src cmn.ObjectDescriptor, target *cmn.ObjectDescriptor) (cmn.Decision, string) {
	if target == nil {
		return cmn.DecisionTransfer, "target absent"
	}

	if variant == cmn.VariantS3Multipart {
		if oldHash, ok := target.Header(cos.HdrOldHash); ok && oldHash == src.Hash {
			return cmn.DecisionSkip, "target old-hash matches source multipart hash"
		}
	}

	if _, isDLO := src.Header(cos.HdrObjectManifest); isDLO {
		if tlen, ok := target.Header(cos.HdrContentLength); ok {
			if slen, ok := src.Header(cos.HdrContentLength); ok && tlen == slen {
				return cmn.DecisionSkip, "DLO target content-length matches source"
			}
		}
	}

	if target.Hash != "" && target.Hash == src.Hash {
		return cmn.DecisionSkip, "target etag matches source hash"
	}

	return cmn.DecisionTransfer, "no skip rule matched"
}
