//go:build !conventiondebug

package convention

// debugChecks enables contract assertions. Build with -tags conventiondebug
// to turn them on.
const debugChecks = false
