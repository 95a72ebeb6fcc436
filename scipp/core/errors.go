package core

import "errors"

var (
	// ErrNotFound is returned for items, coordinates, masks or dimensions
	// requested by name that don't exist.
	ErrNotFound = errors.New("not found")

	// ErrDimensionMismatch is returned for conflicting dimension extents,
	// invalid slice bounds and disallowed dimension renames.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrDuplicateDimension is returned when a dimension name would occur
	// twice, for example as the target of a rename.
	ErrDuplicateDimension = errors.New("duplicate dimension")

	// ErrCoordMismatch is returned when two operands disagree on the values
	// of a shared coordinate during an aligned operation.
	ErrCoordMismatch = errors.New("coordinate mismatch")

	// ErrBinEdge is returned for unsorted bin edges, too few bin edges, or
	// histogrammed data given where ragged event data was expected.
	ErrBinEdge = errors.New("bin-edge error")

	// ErrBucketLength is returned when the per-cell ragged lengths of two
	// binned operands of a binary operation don't match.
	ErrBucketLength = errors.New("bucket length mismatch")

	// ErrBucketRange is returned when a bucket index range lies outside its
	// buffer or overlaps another range.
	ErrBucketRange = errors.New("invalid bucket index range")

	// ErrUnitMismatch is returned for incompatible units.
	ErrUnitMismatch = errors.New("unit mismatch")

	// ErrDType is returned when an operation does not support the element
	// type of its operand.
	ErrDType = errors.New("unsupported dtype")

	// ErrVariance is returned for invalid variance usage, such as variances
	// on a non-float variable or an operand missing required variances.
	ErrVariance = errors.New("variance error")

	// ErrInvalidName is returned when a dimension, coordinate or item name
	// is not acceptable.
	ErrInvalidName = errors.New("invalid name")

	// ErrLength is returned when the number of supplied elements does not
	// match the volume of the dimensions.
	ErrLength = errors.New("length does not match dimensions")
)
