// Package testutil holds shared test doubles: a scriptable operation for
// engine tests and a scripted executor for coordinator tests.
package testutil
