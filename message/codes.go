package message

// Well-known error codes used in responses produced by this library itself.
// Application handlers are free to use any other codes.
const (
	CodeInternal      int64 = -1
	CodeUnknownMethod int64 = -2
	CodeBadArguments  int64 = -3
	CodeTimeout       int64 = -4
	CodeRateLimited   int64 = -5
)
