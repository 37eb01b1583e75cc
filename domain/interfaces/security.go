package interfaces

// TargetPolicy decides which URLs the harness may drive a browser to
type TargetPolicy interface {
	// CheckTarget returns an error when url is not an allowed target
	CheckTarget(url string) error
}
