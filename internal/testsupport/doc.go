// Package testsupport builds isolated configurations and stub executables
// for package tests.
package testsupport
