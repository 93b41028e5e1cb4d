//go:build !upols_release

package contract

// Enabled reports whether contract checks are compiled in.
const Enabled = true
