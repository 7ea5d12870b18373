//go:build !unix

package platform

func isUnsupportedErr(_ error) bool { return false }
