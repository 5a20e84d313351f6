// Package xfer implements the per-object migration decisions and state
// machine.
/*
 * Copyright (c) 2024 Catalyst Cloud
 */
package xfer_test

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func TestXfer(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "xfer Suite")
}
