//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package core

import "net"

func listenConfig(reusePort bool) net.ListenConfig {
	return net.ListenConfig{}
}
