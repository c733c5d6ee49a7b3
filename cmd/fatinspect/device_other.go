//go:build !linux

package main

import "os"

func openDevice(path string) (device, error) {
	return os.Open(path)
}
