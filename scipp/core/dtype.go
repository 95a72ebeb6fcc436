package core

// DType tags the element kind of a Variable.  The set is closed: dense
// numeric, boolean and string buffers, plus the bucket kind whose elements
// are index ranges into a shared buffer.
type DType int

const (
	DTypeNone DType = iota // sentinel, never stored in a variable
	DTypeFloat64
	DTypeInt64
	DTypeBool
	DTypeString
	DTypeBucket
)

var dtypeNames = []string{
	"none",
	"float64",
	"int64",
	"bool",
	"string",
	"bucket",
}

func (dt DType) String() string {
	if dt < 0 || int(dt) >= len(dtypeNames) {
		return "invalid"
	}
	return dtypeNames[dt]
}
