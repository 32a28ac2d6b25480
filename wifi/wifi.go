// Package wifi associates a board with a network, either joining an existing access point as a station or starting
// its own WPA2 access point. The radio itself is any netlink device (cyw43439, wifinina, espat, ...).
package wifi

import (
	"errors"
	"fmt"
	"time"

	"tinygo.org/x/drivers/netlink"
)

// ErrNetworkNotFound is returned by Connect when a scan does not show the requested SSID.
var ErrNetworkNotFound = errors.New("wifi: network not found")

// ConnectTimeout bounds each association attempt.
const ConnectTimeout = 10 * time.Second

// Link is the part of netlink.Netlinker used here.
type Link interface {
	NetConnect(params *netlink.ConnectParams) error
}

// Network is an access point seen by a scan.
type Network struct {
	SSID     string
	AuthType netlink.AuthType
	Channel  uint8
}

// Scanner is implemented by links that can list visible networks. Connect uses it when available to check the
// network exists and to pick its auth type. The netlink devices do not scan, so a radio only opts in through a wrapper
// that implements Scan.
type Scanner interface {
	Scan() ([]Network, error)
}

// Connect joins ssid as a station. An empty pass selects an open network.
func Connect(link Link, ssid, pass string) error {
	auth := netlink.AuthType(netlink.AuthTypeWPA2)
	if pass == "" {
		auth = netlink.AuthTypeOpen
	}

	if s, ok := link.(Scanner); ok {
		nets, err := s.Scan()
		if err != nil {
			return fmt.Errorf("wifi: scan: %w", err)
		}
		n, found := find(nets, ssid)
		if !found {
			return fmt.Errorf("%w: %q", ErrNetworkNotFound, ssid)
		}
		auth = n.AuthType
	}

	err := link.NetConnect(&netlink.ConnectParams{
		ConnectMode:    netlink.ConnectModeSTA,
		Ssid:           ssid,
		Passphrase:     pass,
		AuthType:       auth,
		ConnectTimeout: ConnectTimeout,
	})
	if err != nil {
		return fmt.Errorf("wifi: connect to %q: %w", ssid, err)
	}
	return nil
}

// StartAccessPoint brings up a WPA2 access point named ssid.
func StartAccessPoint(link Link, ssid, pass string) error {
	err := link.NetConnect(&netlink.ConnectParams{
		ConnectMode: netlink.ConnectModeAP,
		Ssid:        ssid,
		Passphrase:  pass,
		AuthType:    netlink.AuthTypeWPA2,
	})
	if err != nil {
		return fmt.Errorf("wifi: start access point %q: %w", ssid, err)
	}
	return nil
}

func find(nets []Network, ssid string) (Network, bool) {
	for _, n := range nets {
		if n.SSID == ssid {
			return n, true
		}
	}
	return Network{}, false
}
