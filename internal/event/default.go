package event

// defaultInstance is the process-wide Instance, built once at package
// initialization with the built-in defaults. It is never torn down.
var defaultInstance = New()

// Default returns the process-wide Instance.
func Default() *Instance {
	return defaultInstance
}
