// Package clock provides a tiny time abstraction.
//
// TOTP validation depends on the current time step, so business code reads
// time through Clocker and tests drive it with Frozen.
package clock
