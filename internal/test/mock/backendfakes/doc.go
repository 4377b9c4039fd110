// Package backendfakes provides an in-memory record backend for tests.
//
// The fake speaks the same admin auth and collection REST routes as the real
// backend and lets tests inject status failures per call.
package backendfakes
