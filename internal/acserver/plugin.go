package acserver

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Plugin receives the events an Assetto Corsa server emits to its UDP plugin.
type Plugin interface {
	Init(server ServerPlugin, logger Logger) error

	OnVersion(version uint16) error
	OnNewSession(newSession SessionInfo) error
	OnSessionInfo(session SessionInfo) error
	OnEndSession(sessionFile string) error

	OnNewConnection(car CarInfo) error
	OnCarInfo(car CarInfo) error
	OnClientLoaded(car CarInfo) error
	OnLapCompleted(carID CarID, lap Lap) error
	OnConnectionClosed(car CarInfo) error
}

// ServerPlugin is the view of the server that plugins are given on Init.
type ServerPlugin interface {
	GetCarInfo(id CarID) (CarInfo, error)
	GetSessionInfo() SessionInfo
	GetLeaderboard() []*LeaderboardLine

	// RelayCommand passes a raw plugin command packet through to the server.
	RelayCommand(data []byte) error
}

type multiPlugin struct {
	plugins []Plugin
}

func MultiPlugin(plugins ...Plugin) Plugin {
	return &multiPlugin{plugins: plugins}
}

func (mp *multiPlugin) each(fn func(plugin Plugin) error) error {
	g, _ := errgroup.WithContext(context.Background())

	for _, plugin := range mp.plugins {
		plugin := plugin
		g.Go(func() error {
			return fn(plugin)
		})
	}

	return g.Wait()
}

func (mp *multiPlugin) Init(server ServerPlugin, logger Logger) error {
	return mp.each(func(plugin Plugin) error {
		return plugin.Init(server, logger)
	})
}

func (mp *multiPlugin) OnVersion(version uint16) error {
	return mp.each(func(plugin Plugin) error {
		return plugin.OnVersion(version)
	})
}

func (mp *multiPlugin) OnNewSession(newSession SessionInfo) error {
	return mp.each(func(plugin Plugin) error {
		return plugin.OnNewSession(newSession)
	})
}

func (mp *multiPlugin) OnSessionInfo(session SessionInfo) error {
	return mp.each(func(plugin Plugin) error {
		return plugin.OnSessionInfo(session)
	})
}

func (mp *multiPlugin) OnEndSession(sessionFile string) error {
	return mp.each(func(plugin Plugin) error {
		return plugin.OnEndSession(sessionFile)
	})
}

func (mp *multiPlugin) OnNewConnection(car CarInfo) error {
	return mp.each(func(plugin Plugin) error {
		return plugin.OnNewConnection(car)
	})
}

func (mp *multiPlugin) OnCarInfo(car CarInfo) error {
	return mp.each(func(plugin Plugin) error {
		return plugin.OnCarInfo(car)
	})
}

func (mp *multiPlugin) OnClientLoaded(car CarInfo) error {
	return mp.each(func(plugin Plugin) error {
		return plugin.OnClientLoaded(car)
	})
}

func (mp *multiPlugin) OnLapCompleted(carID CarID, lap Lap) error {
	return mp.each(func(plugin Plugin) error {
		return plugin.OnLapCompleted(carID, lap)
	})
}

func (mp *multiPlugin) OnConnectionClosed(car CarInfo) error {
	return mp.each(func(plugin Plugin) error {
		return plugin.OnConnectionClosed(car)
	})
}

// NilPlugin implements Plugin with no-ops. Embed it to implement only the events you need.
type NilPlugin struct{}

func (NilPlugin) Init(_ ServerPlugin, _ Logger) error {
	return nil
}

func (NilPlugin) OnVersion(_ uint16) error {
	return nil
}

func (NilPlugin) OnNewSession(_ SessionInfo) error {
	return nil
}

func (NilPlugin) OnSessionInfo(_ SessionInfo) error {
	return nil
}

func (NilPlugin) OnEndSession(_ string) error {
	return nil
}

func (NilPlugin) OnNewConnection(_ CarInfo) error {
	return nil
}

func (NilPlugin) OnCarInfo(_ CarInfo) error {
	return nil
}

func (NilPlugin) OnClientLoaded(_ CarInfo) error {
	return nil
}

func (NilPlugin) OnLapCompleted(_ CarID, _ Lap) error {
	return nil
}

func (NilPlugin) OnConnectionClosed(_ CarInfo) error {
	return nil
}
