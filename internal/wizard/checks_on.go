//go:build !release

package wizard

// checksEnabled turns on post-transition invariant checks outside release builds.
const checksEnabled = true
