// Package hash provides keyed digests for values that must be compared or
// stored without revealing the input, such as caller supplied idempotency keys.
package hash
