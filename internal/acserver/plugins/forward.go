package plugins

import (
	"context"
	"fmt"
	"net"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"justapengu.in/bestlap/internal/acserver"
	"justapengu.in/bestlap/pkg/udp"
)

// ForwardPlugin passes the server's plugin events on to a second UDP plugin, and that
// plugin's commands back to the server.
type ForwardPlugin struct {
	localAddress  *net.UDPAddr
	remoteAddress *net.UDPAddr
	packetConn    *net.UDPConn

	server acserver.ServerPlugin
	logger acserver.Logger
	ctx    context.Context
	cfn    context.CancelFunc

	mutex    sync.Mutex
	shutdown bool
	done     chan struct{}
}

func NewForwardPlugin(listenPort int, sendAddress string) (*ForwardPlugin, error) {
	remoteAddress, err := net.ResolveUDPAddr("udp", sendAddress)

	if err != nil {
		return nil, errors.Wrapf(err, "forward plugin: could not resolve %s", sendAddress)
	}

	localAddress, err := net.ResolveUDPAddr("udp", fmt.Sprintf(":%d", listenPort))

	if err != nil {
		return nil, errors.Wrapf(err, "forward plugin: could not resolve listen port %d", listenPort)
	}

	ctx, cfn := context.WithCancel(context.Background())

	return &ForwardPlugin{
		localAddress:  localAddress,
		remoteAddress: remoteAddress,
		ctx:           ctx,
		cfn:           cfn,
		done:          make(chan struct{}),
	}, nil
}

func (f *ForwardPlugin) Init(server acserver.ServerPlugin, logger acserver.Logger) error {
	f.server = server
	f.logger = logger

	var err error

	f.packetConn, err = net.DialUDP("udp", f.localAddress, f.remoteAddress)

	if err != nil {
		return errors.Wrap(err, "forward plugin: could not open socket")
	}

	f.logger.Infof("Forwarding plugin events to %s, relaying its commands from %s", f.remoteAddress, f.packetConn.LocalAddr())

	go f.listen()

	return nil
}

func (f *ForwardPlugin) listen() {
	defer close(f.done)

	buf := make([]byte, 1024)

	for {
		select {
		case <-f.ctx.Done():
			return
		default:
		}

		_ = f.packetConn.SetReadDeadline(time.Now().Add(time.Second))

		n, err := f.packetConn.Read(buf)

		if err != nil {
			if e, ok := err.(net.Error); ok && e.Timeout() {
				continue
			}

			if f.ctx.Err() != nil {
				return
			}

			if e, ok := err.(*net.OpError); ok && !e.Temporary() {
				f.logger.WithError(err).Errorf("forward plugin: fatal error, commands from %s will no longer be relayed", f.remoteAddress)
				f.stop()
				return
			}

			// nothing listening downstream yet
			continue
		}

		if n == 0 {
			continue
		}

		command := make([]byte, n)
		copy(command, buf[:n])

		if err := f.server.RelayCommand(command); err != nil {
			f.logger.WithError(err).Errorf("forward plugin: could not relay command %d", command[0])
		}
	}
}

// Shutdown stops forwarding and closes the socket. It waits for the relay loop to exit.
func (f *ForwardPlugin) Shutdown() error {
	if f.packetConn == nil {
		return nil
	}

	f.logger.Infof("Shutting down forward plugin")

	f.stop()
	f.cfn()

	err := f.packetConn.Close()

	<-f.done

	return err
}

func (f *ForwardPlugin) stop() {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.shutdown = true
}

func (f *ForwardPlugin) forward(msg udp.Message) error {
	f.mutex.Lock()
	shutdown := f.shutdown
	f.mutex.Unlock()

	if shutdown {
		return nil
	}

	data, err := udp.Encode(msg)

	if err != nil {
		return err
	}

	_, err = f.packetConn.Write(data)

	// the downstream plugin not running yet is not our problem
	if err != nil && errors.Is(err, syscall.ECONNREFUSED) {
		return nil
	}

	return errors.Wrap(err, "forward plugin: could not write event")
}

func (f *ForwardPlugin) OnVersion(version uint16) error {
	return f.forward(udp.Version(version))
}

func (f *ForwardPlugin) OnNewSession(newSession acserver.SessionInfo) error {
	return f.forward(udp.ConvertSessionInfo(udp.EventNewSession, newSession))
}

func (f *ForwardPlugin) OnSessionInfo(session acserver.SessionInfo) error {
	return f.forward(udp.ConvertSessionInfo(udp.EventSessionInfo, session))
}

func (f *ForwardPlugin) OnEndSession(sessionFile string) error {
	return f.forward(udp.EndSession(sessionFile))
}

func (f *ForwardPlugin) OnNewConnection(car acserver.CarInfo) error {
	return f.forward(sessionCarInfo(udp.EventNewConnection, car))
}

func (f *ForwardPlugin) OnConnectionClosed(car acserver.CarInfo) error {
	return f.forward(sessionCarInfo(udp.EventConnectionClosed, car))
}

func sessionCarInfo(eventType udp.Event, car acserver.CarInfo) udp.SessionCarInfo {
	return udp.SessionCarInfo{
		CarID:      car.CarID,
		DriverName: car.Driver.Name,
		DriverGUID: udp.DriverGUID(car.Driver.GUID),
		CarModel:   car.Model,
		CarSkin:    car.Skin,
		EventType:  eventType,
	}
}

func (f *ForwardPlugin) OnCarInfo(car acserver.CarInfo) error {
	return f.forward(udp.CarInfo{
		CarID:       car.CarID,
		IsConnected: car.IsConnected,
		CarModel:    car.Model,
		CarSkin:     car.Skin,
		DriverName:  car.Driver.Name,
		DriverTeam:  car.Driver.Team,
		DriverGUID:  udp.DriverGUID(car.Driver.GUID),
	})
}

func (f *ForwardPlugin) OnClientLoaded(car acserver.CarInfo) error {
	return f.forward(udp.ClientLoaded(car.CarID))
}

func (f *ForwardPlugin) OnLapCompleted(carID acserver.CarID, lap acserver.Lap) error {
	lapCompleted := udp.LapCompleted{
		CarID:   carID,
		LapTime: uint32(lap.LapTime.Milliseconds()),
		Cuts:    uint8(lap.Cuts),
	}

	for _, line := range f.server.GetLeaderboard() {
		car := &udp.LapCompletedCar{
			CarID:   line.CarID,
			LapTime: uint32(line.Time.Milliseconds()),
			Laps:    uint16(line.NumLaps),
		}

		if line.Completed {
			car.Completed = 1
		}

		lapCompleted.Cars = append(lapCompleted.Cars, car)
	}

	lapCompleted.CarsCount = uint8(len(lapCompleted.Cars))

	return f.forward(lapCompleted)
}
