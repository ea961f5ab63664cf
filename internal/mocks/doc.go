// Package mocks provides test doubles for the application's interfaces.
// Each mock exposes function fields to customize behavior per test, with
// reasonable in-memory defaults when the fields are left nil.
package mocks
