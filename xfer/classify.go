// Package xfer implements C3 (Classify), C4 (the Skip Decider), C5
// (the per-object Migrator state machine) and C6 (the Container
// Migrator).
/*
 * Copyright (c) 2024 Catalyst Cloud
 */
package xfer

import (
	"github.com/catalyst-cloud/objectmigrate/cmn"
	"github.com/catalyst-cloud/objectmigrate/cos"
)

// Classify is a pure function from an object descriptor to its
// ObjectVariant. Decision order is significant: the first matching rule
// wins.
func Classify(obj cmn.ObjectDescriptor) cmn.ObjectVariant {
	if _, ok := obj.Header(cos.HdrObjectManifest); ok {
		return cmn.VariantDLO
	}
	if _, ok := obj.Header(cos.HdrStaticLargeObj); ok {
		return cmn.VariantSLO
	}
	if obj.Bytes > cos.GB5 {
		return cmn.VariantSingleLarge
	}
	if cos.IsMultipartHash(obj.Hash) {
		return cmn.VariantS3Multipart
	}
	return cmn.VariantNormal
}
