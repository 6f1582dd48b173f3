package main

import (
	"io/ioutil"
	"net"
	"strconv"

	"github.com/cj123/ini"
	"github.com/pkg/errors"
)

// LegacyServerConfig is the part of an acServer server_cfg.ini that describes its UDP plugin.
type LegacyServerConfig struct {
	// UDPPluginLocalPort is where the server listens for plugin commands.
	UDPPluginLocalPort int `ini:"UDP_PLUGIN_LOCAL_PORT"`
	// UDPPluginAddress is where the server sends plugin events.
	UDPPluginAddress string `ini:"UDP_PLUGIN_ADDRESS"`
}

func readLegacyServerConfig(path string) (*LegacyServerConfig, error) {
	b, err := ioutil.ReadFile(path)

	if err != nil {
		return nil, err
	}

	i, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment: true,
	}, b)

	if err != nil {
		return nil, err
	}

	server, err := i.GetSection("SERVER")

	if err != nil {
		return nil, err
	}

	var sc LegacyServerConfig

	if err := server.MapTo(&sc); err != nil {
		return nil, err
	}

	return &sc, nil
}

// PluginAddresses turns the server's view of the plugin into ours: we listen where the
// server sends events, and send commands to the server's local port.
func (sc *LegacyServerConfig) PluginAddresses() (listenPort int, serverAddress string, err error) {
	if sc.UDPPluginLocalPort <= 0 || sc.UDPPluginAddress == "" {
		return 0, "", errors.New("UDP_PLUGIN_LOCAL_PORT and UDP_PLUGIN_ADDRESS must both be set")
	}

	host, port, err := net.SplitHostPort(sc.UDPPluginAddress)

	if err != nil {
		return 0, "", errors.Wrapf(err, "invalid UDP_PLUGIN_ADDRESS %q", sc.UDPPluginAddress)
	}

	listenPort, err = strconv.Atoi(port)

	if err != nil || listenPort <= 0 {
		return 0, "", errors.Errorf("invalid UDP_PLUGIN_ADDRESS port %q", port)
	}

	if host == "" {
		host = "127.0.0.1"
	}

	return listenPort, net.JoinHostPort(host, strconv.Itoa(sc.UDPPluginLocalPort)), nil
}
