package network

import (
	"fmt"
	"net"
	"strings"
)

// Retrieves IP plus transport header overhead for the destination address family
func getTransportOverhead(destinationIP string) (overhead int, err error) {
	const ip4Overhead int = 60
	const ip6Overhead int = 80
	const udpOverhead int = 8

	if strings.Contains(destinationIP, ":") {
		overhead = ip6Overhead + udpOverhead
	} else if strings.Contains(destinationIP, ".") {
		overhead = ip4Overhead + udpOverhead
	} else {
		err = fmt.Errorf("unsupported destination address '%v'", destinationIP)
		return
	}
	return
}

// Determines the largest UDP payload that fits in one frame towards destination (host or host:port)
func FindSendingMaxUDPPayload(destination string) (maxPayloadSize int, err error) {
	destinationIP := destination
	host, _, splitErr := net.SplitHostPort(destination)
	if splitErr == nil {
		destinationIP = host
	}

	// Ethernet default when nothing better is known
	const defaultMTU int = 1500

	overhead, err := getTransportOverhead(destinationIP)
	if err != nil {
		err = fmt.Errorf("failed to retrieve transport layer overhead: %w", err)
		return
	}

	ip := net.ParseIP(strings.Trim(destinationIP, "[]"))
	if ip == nil {
		err = fmt.Errorf("invalid destination address: %s", destinationIP)
		return
	}

	var mtu int
	if ip.IsLoopback() {
		mtu, err = loopbackMTU()
	} else {
		mtu, err = outboundMTU(ip)
	}
	if err != nil {
		return
	}

	if mtu <= 0 {
		mtu = defaultMTU
	}
	maxPayloadSize = mtu - overhead
	return
}

// MTU of the first loopback interface
func loopbackMTU() (mtu int, err error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			mtu = iface.MTU
			return
		}
	}
	return
}

// MTU of the interface the kernel routes towards ip
func outboundMTU(ip net.IP) (mtu int, err error) {
	// Connecting a UDP socket sends nothing but resolves the source address
	conn, err := net.DialUDP("udp", nil, &net.UDPAddr{IP: ip, Port: 9})
	if err != nil {
		err = fmt.Errorf("failed to find route for destination %s: %w", ip, err)
		return
	}
	defer conn.Close()

	localIP := conn.LocalAddr().(*net.UDPAddr).IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return
	}
	for _, iface := range ifaces {
		addrs, addrErr := iface.Addrs()
		if addrErr != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if ok && ipNet.IP.Equal(localIP) {
				mtu = iface.MTU
				return
			}
		}
	}

	err = fmt.Errorf("no matching interface found for address %v", localIP)
	return
}
