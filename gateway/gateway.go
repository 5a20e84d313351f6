// Package gateway defines the storage-backend-agnostic interface the
// migration engine drives: list/stat/download/upload/delete against
// either a Swift-style or S3-style object store. Concrete
// implementations live in gateway/s3gw (source) and gateway/swiftgw
// (target).
/*
 * Copyright (c) 2024 Catalyst Cloud
 */
package gateway

import (
	"context"
	"io"

	"github.com/catalyst-cloud/objectmigrate/cmn"
)

// Gateway is implemented once per storage backend. List operations
// return the complete listing as one slice; they are not lazily
// paginated, so the whole listing is held in memory. All blocking calls
// accept a context; how it is honoured (deadline, cancellation) is left
// to the implementation, and no implementation retries a failed call.
type Gateway interface {
	// ListContainers returns every container belonging to tenant,
	// excluding internal segments containers (see cos.IsSegmentsContainer).
	ListContainers(ctx context.Context, tenant string) ([]cmn.Container, error)

	// StatContainer returns container metadata without listing objects.
	// Returns cmn.ErrNotFound if the container does not exist.
	StatContainer(ctx context.Context, tenant, container string) (cmn.Container, error)

	// ListObjects returns every object descriptor in container,
	// including segments objects if container is itself a segments
	// container.
	ListObjects(ctx context.Context, tenant, container string) ([]cmn.ObjectDescriptor, error)

	// StatObject returns a single object's descriptor. Returns
	// cmn.ErrNotFound if absent.
	StatObject(ctx context.Context, tenant, container, object string) (cmn.ObjectDescriptor, error)

	// Download streams object's body. The caller must Close the
	// returned ReadCloser.
	Download(ctx context.Context, tenant, container, object string) (io.ReadCloser, error)

	// Upload streams size bytes from body into container/object,
	// attaching headers (already prefixed, e.g. x-object-meta-*).
	Upload(ctx context.Context, tenant, container, object string, body io.Reader, size int64, headers map[string]string) error

	// PostContainer creates container if absent and applies headers
	// (ACLs, metadata) idempotently.
	PostContainer(ctx context.Context, tenant, container string, headers map[string]string) error

	// DeleteContainer removes an empty container.
	DeleteContainer(ctx context.Context, tenant, container string) error

	// DeleteObject removes a single object.
	DeleteObject(ctx context.Context, tenant, container, object string) error

	// HeadContainer returns container ACL/metadata headers, lower-cased.
	HeadContainer(ctx context.Context, tenant, container string) (map[string]string, error)

	// CopyWithin performs a server-side copy from srcContainer/srcObject
	// to dstContainer/dstObject within the same tenant, without reading
	// the body through the client. Used by reconcile's rename-on-collision
	// path.
	CopyWithin(ctx context.Context, tenant, srcContainer, srcObject, dstContainer, dstObject string) error

	// StatAccount returns tenant-wide totals (container/object/byte
	// counts). Used by the scheduler to aggregate global counters and
	// per-tenant usage without depending on every container in a listing
	// carrying populated ObjCount/ByteCount fields.
	StatAccount(ctx context.Context, tenant string) (cmn.AccountStats, error)
}
