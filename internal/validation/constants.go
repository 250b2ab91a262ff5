package validation

const (
	MaxNameLength      = 140
	MaxReasonLength    = 500
	MaxReferenceLength = 100
	MaxMetadataLength  = 200
)
