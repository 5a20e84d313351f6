package xfer

import (
	"context"
	"fmt"
	"io"

	"github.com/catalyst-cloud/objectmigrate/cmn"
	"github.com/catalyst-cloud/objectmigrate/cos"
	"github.com/catalyst-cloud/objectmigrate/gateway"
	"github.com/catalyst-cloud/objectmigrate/internal/spool"
	"github.com/catalyst-cloud/objectmigrate/internal/telemetry"
)

// State is an object migration's terminal observable outcome.
type State int

const (
	Skipped State = iota
	Transferred
	Failed
)

func (s State) String() string {
	switch s {
	case Skipped:
		return "skipped"
	case Transferred:
		return "transferred"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of migrating one object.
type Result struct {
	Object  string
	Variant cmn.ObjectVariant
	State   State
	Reason  string // skip reason, or failure message
	Bytes   int64  // source object size, known regardless of outcome
}

// Migrator drives C5's Classify → Decide → Fetch → Upload → Verify →
// Commit state machine for a single object, given a source and target
// gateway already scoped to one tenant.
type Migrator struct {
	Source gateway.Gateway
	Target gateway.Gateway
	Spool  *spool.Spool

	// Log is optional; when set and at verbose level, the SingleLarge/SLO
	// spool path reports a diagnostic checksum and spool-disk I/O sample
	// alongside each transfer.
	Log *telemetry.Logger
}

// MigrateObject runs the full state machine for one object within
// container. Any error is captured into the Result rather than
// returned, so a caller can iterate a container without per-object
// error handling (per C5: single-object failure is never fatal to the
// tenant).
func (m *Migrator) MigrateObject(ctx context.Context, tenant, container, object string, src cmn.ObjectDescriptor) Result {
	variant := Classify(src)

	target, err := m.Target.StatObject(ctx, tenant, container, object)
	var targetPtr *cmn.ObjectDescriptor
	if err == nil {
		targetPtr = &target
	} else if err != cmn.ErrNotFound {
		return Result{Object: object, Variant: variant, State: Failed, Reason: fmt.Sprintf("stat target: %v", err), Bytes: src.Bytes}
	}

	decision, reason := Decide(variant, src, targetPtr)
	if decision == cmn.DecisionSkip {
		return Result{Object: object, Variant: variant, State: Skipped, Reason: reason, Bytes: src.Bytes}
	}

	if err := m.transfer(ctx, tenant, container, object, variant, src); err != nil {
		return Result{Object: object, Variant: variant, State: Failed, Reason: err.Error(), Bytes: src.Bytes}
	}

	if variant != cmn.VariantDLO {
		if err := m.verify(ctx, tenant, container, object, variant, src); err != nil {
			return Result{Object: object, Variant: variant, State: Failed, Reason: err.Error(), Bytes: src.Bytes}
		}
	}

	return Result{Object: object, Variant: variant, State: Transferred, Bytes: src.Bytes}
}

func (m *Migrator) transfer(ctx context.Context, tenant, container, object string, variant cmn.ObjectVariant, src cmn.ObjectDescriptor) error {
	switch variant {
	case cmn.VariantDLO:
		return m.transferDLO(ctx, tenant, container, object, src)
	case cmn.VariantSLO:
		return m.transferSLO(ctx, tenant, container, object, src)
	case cmn.VariantSingleLarge:
		return m.transferSingleLarge(ctx, tenant, container, object, src)
	case cmn.VariantS3Multipart:
		return m.transferTagged(ctx, tenant, container, object, src, true)
	default:
		return m.transferTagged(ctx, tenant, container, object, src, false)
	}
}

// transferTagged handles Normal and S3Multipart: a straight stream
// copy, optionally stamping x-object-meta-old-hash for future Skip
// recognition.
func (m *Migrator) transferTagged(ctx context.Context, tenant, container, object string, src cmn.ObjectDescriptor, tagOldHash bool) error {
	body, err := m.Source.Download(ctx, tenant, container, object)
	if err != nil {
		return cmn.Wrap(err, "download")
	}
	defer body.Close()

	headers := headersFromMeta(src)
	if tagOldHash {
		headers[cos.HdrOldHash] = src.Hash
	}

	if err := m.Target.Upload(ctx, tenant, container, object, body, src.Bytes, headers); err != nil {
		return cmn.Wrap(err, "upload")
	}
	return nil
}

// transferSingleLarge spools the full object to a temp file (so the
// upload reads from local disk rather than a single network stream),
// then uploads it with one Target.Upload call. Segmentation is left to
// the target gateway: s3gw uploads in 2 GiB parts, while swiftgw sends a
// single PUT and creates no `<container>_segments` segments.
func (m *Migrator) transferSingleLarge(ctx context.Context, tenant, container, object string, src cmn.ObjectDescriptor) error {
	body, err := m.Source.Download(ctx, tenant, container, object)
	if err != nil {
		return cmn.Wrap(err, "download")
	}
	defer body.Close()

	file, err := m.Spool.Spool(body, src.Bytes)
	if err != nil {
		return cmn.Wrap(err, "spool")
	}
	defer file.Close()
	m.logSpoolDiagnostics(container, object, file)

	headers := headersFromMeta(src)
	if cos.IsMultipartHash(src.Hash) {
		headers[cos.HdrOldHash] = src.Hash
	}

	if err := m.Target.Upload(ctx, tenant, container, object, file, src.Bytes, headers); err != nil {
		return cmn.Wrap(err, "segmented upload")
	}
	return nil
}

// logSpoolDiagnostics reports a diagnostic xxhash of the staged file and
// the spool disk's current iostat sample, purely for verbose
// troubleshooting of large-object transfers; a nil/non-verbose Log skips
// the work entirely rather than paying for a checksum pass no one reads.
func (m *Migrator) logSpoolDiagnostics(container, object string, file *spool.File) {
	if m.Log == nil || !m.Log.Verbose() {
		return
	}
	if sum, err := spool.Checksum(file.Path()); err == nil {
		m.Log.Verbosef("spool checksum %s/%s: %x", container, object, sum)
	}
	if samples, err := spool.SampleIOStat(); err == nil {
		for _, s := range samples {
			m.Log.Verbosef("spool io %s: read=%d written=%d", s.Device, s.ReadBytes, s.WrittenBytes)
		}
	}
}

// transferDLO creates a zero-body manifest object; segments are
// migrated separately as their own container's objects.
func (m *Migrator) transferDLO(ctx context.Context, tenant, container, object string, src cmn.ObjectDescriptor) error {
	manifest, _ := src.Header(cos.HdrObjectManifest)
	headers := map[string]string{cos.HdrObjectManifest: manifest}
	if err := m.Target.Upload(ctx, tenant, container, object, emptyReader{}, 0, headers); err != nil {
		return cmn.Wrap(err, "upload DLO manifest")
	}
	return nil
}

// transferSLO downloads the whole assembled object (not the manifest
// JSON) and re-uploads it flagged as an SLO, since source gateways are
// not trusted to serve a faithful manifest across backends.
func (m *Migrator) transferSLO(ctx context.Context, tenant, container, object string, src cmn.ObjectDescriptor) error {
	body, err := m.Source.Download(ctx, tenant, container, object)
	if err != nil {
		return cmn.Wrap(err, "download")
	}
	defer body.Close()

	file, err := m.Spool.Spool(body, src.Bytes)
	if err != nil {
		return cmn.Wrap(err, "spool")
	}
	defer file.Close()
	m.logSpoolDiagnostics(container, object, file)

	headers := headersFromMeta(src)
	headers[cos.HdrStaticLargeObj] = "True"

	if err := m.Target.Upload(ctx, tenant, container, object, file, src.Bytes, headers); err != nil {
		return cmn.Wrap(err, "upload SLO")
	}
	return nil
}

func (m *Migrator) verify(ctx context.Context, tenant, container, object string, variant cmn.ObjectVariant, src cmn.ObjectDescriptor) error {
	target, err := m.Target.StatObject(ctx, tenant, container, object)
	if err != nil {
		return cmn.Wrap(err, "verify: stat target")
	}

	if oldHash, ok := target.Header(cos.HdrOldHash); ok && oldHash == src.Hash {
		return nil
	}
	if target.Hash == src.Hash {
		return nil
	}
	return cmn.Wrapf(cmn.ErrVerifyMismatch, "object %s: target hash %q != source hash %q", object, target.Hash, src.Hash)
}

// headersFromMeta carries over only the source's user metadata
// (x-object-meta-*), never wire-level headers like etag/content-length/
// content-type, which describe the source representation, not the
// object's identity, and must not be copied verbatim onto the upload.
func headersFromMeta(src cmn.ObjectDescriptor) map[string]string {
	return src.UserMeta(cos.HdrMetaPrefix)
}

type emptyReader struct{}

func (emptyReader) Read(p []byte) (int, error) { return 0, io.EOF }
