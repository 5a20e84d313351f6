package cmn

import "github.com/pkg/errors"

// Sentinel errors a caller can match against with errors.Is, after the
// concrete error has been wrapped with context via pkg/errors.Wrap.
var (
	// ErrNotFound is returned when a tenant, container, or object does
	// not exist on the gateway being queried.
	ErrNotFound = errors.New("not found")

	// ErrRoleGrantFailed is returned when the migration role could not
	// be granted on a tenant, either because the identity backend
	// rejected the grant or because verifying the grant afterward
	// failed.
	ErrRoleGrantFailed = errors.New("role grant failed")

	// ErrVerifyMismatch is returned by the post-upload Verify step when
	// neither the destination object's hash nor its old-hash header
	// matches the source hash. Sizes are not compared.
	ErrVerifyMismatch = errors.New("verify mismatch")

	// ErrInvalidTenantFilter is returned when a tenant filter cannot be
	// resolved: its include/exclude file cannot be read, its kind is
	// unknown, or an include filter names a tenant absent from the
	// directory.
	ErrInvalidTenantFilter = errors.New("invalid tenant filter")

	// ErrUnsupportedVariant is returned when an object's headers do not
	// match any known ObjectVariant.
	ErrUnsupportedVariant = errors.New("unsupported object variant")
)

// Wrap annotates err with msg using pkg/errors, preserving the
// underlying sentinel for errors.Is/errors.Cause checks. Returns nil if
// err is nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, msg)
}

// Wrapf is Wrap with Printf-style formatting.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, format, args...)
}
