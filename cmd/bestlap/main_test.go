package main

import (
	"io/ioutil"
	"path/filepath"
	"testing"
)

const testServerConfig = `[SERVER]
NAME=Hotlap Server ; comment kept as part of the name
UDP_PORT=9600
UDP_PLUGIN_LOCAL_PORT=11000
UDP_PLUGIN_ADDRESS=127.0.0.1:12000
AUTH_PLUGIN_ADDRESS=

[DYNAMIC_TRACK]
SESSION_START=95
`

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()

	path := filepath.Join(dir, name)

	if err := ioutil.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestReadLegacyServerConfig(t *testing.T) {
	path := writeFile(t, t.TempDir(), "server_cfg.ini", testServerConfig)

	sc, err := readLegacyServerConfig(path)

	if err != nil {
		t.Fatal(err)
	}

	if sc.UDPPluginLocalPort != 11000 || sc.UDPPluginAddress != "127.0.0.1:12000" {
		t.Errorf("unexpected server config %+v", sc)
	}

	listenPort, serverAddress, err := sc.PluginAddresses()

	if err != nil {
		t.Fatal(err)
	}

	if listenPort != 12000 || serverAddress != "127.0.0.1:11000" {
		t.Errorf("expected to listen on 12000 and send to 127.0.0.1:11000, got %d and %s", listenPort, serverAddress)
	}
}

func TestPluginAddresses(t *testing.T) {
	tests := []struct {
		name          string
		config        LegacyServerConfig
		listenPort    int
		serverAddress string
		err           bool
	}{
		{
			name:          "Host defaults to localhost",
			config:        LegacyServerConfig{UDPPluginLocalPort: 11000, UDPPluginAddress: ":12000"},
			listenPort:    12000,
			serverAddress: "127.0.0.1:11000",
		},
		{
			name:          "Remote plugin host",
			config:        LegacyServerConfig{UDPPluginLocalPort: 11000, UDPPluginAddress: "10.0.0.2:12000"},
			listenPort:    12000,
			serverAddress: "10.0.0.2:11000",
		},
		{
			name:   "Plugin disabled",
			config: LegacyServerConfig{},
			err:    true,
		},
		{
			name:   "No port",
			config: LegacyServerConfig{UDPPluginLocalPort: 11000, UDPPluginAddress: "127.0.0.1"},
			err:    true,
		},
		{
			name:   "Bad port",
			config: LegacyServerConfig{UDPPluginLocalPort: 11000, UDPPluginAddress: "127.0.0.1:plugin"},
			err:    true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			listenPort, serverAddress, err := test.config.PluginAddresses()

			if test.err {
				if err == nil {
					t.Error("expected an error")
				}

				return
			}

			if err != nil {
				t.Fatal(err)
			}

			if listenPort != test.listenPort || serverAddress != test.serverAddress {
				t.Errorf("expected %d and %s, got %d and %s", test.listenPort, test.serverAddress, listenPort, serverAddress)
			}
		})
	}
}

func TestReadConfig(t *testing.T) {
	t.Run("Defaults fill missing best lap settings", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "config.yml", `
udp_plugin_local_port: 12000
udp_plugin_address: 127.0.0.1:11000
best_lap:
  notification_url: http://collector.example.com/laps
  session_mode: true
`)

		config, err := readConfig(path)

		if err != nil {
			t.Fatal(err)
		}

		if config.LogLevel != "info" {
			t.Errorf("expected the default log level, got %s", config.LogLevel)
		}

		if !config.BestLap.SessionMode || config.BestLap.MinimumLapTimeMs != 10000 || !config.BestLap.PersistenceEnabled {
			t.Errorf("unexpected best lap config %+v", config.BestLap)
		}

		if err := config.BestLap.Validate(); err != nil {
			t.Error(err)
		}
	})

	t.Run("Plugin ports from server_cfg.ini", func(t *testing.T) {
		dir := t.TempDir()
		serverConfigPath := writeFile(t, dir, "server_cfg.ini", testServerConfig)

		path := writeFile(t, dir, "config.yml", `
server_cfg: `+serverConfigPath+`
udp_plugin_local_port: 1
best_lap:
  notification_url: http://collector.example.com/laps
`)

		config, err := readConfig(path)

		if err != nil {
			t.Fatal(err)
		}

		if config.UDPPluginLocalPort != 12000 || config.UDPPluginAddress != "127.0.0.1:11000" {
			t.Errorf("expected ports from server_cfg.ini, got %d and %s", config.UDPPluginLocalPort, config.UDPPluginAddress)
		}
	})

	t.Run("Plugin ports are required", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "config.yml", `
best_lap:
  notification_url: http://collector.example.com/laps
`)

		if _, err := readConfig(path); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("Missing file", func(t *testing.T) {
		if _, err := readConfig(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
			t.Error("expected an error")
		}
	})
}
