// Package dedupe makes client retries idempotent. A Cache remembers the
// result produced for a request ID for a configurable window, so a repeated
// request gets the original answer instead of doing the work twice.
package dedupe
