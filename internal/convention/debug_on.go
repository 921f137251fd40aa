//go:build conventiondebug

package convention

const debugChecks = true
