package udp

import (
	"context"
	"fmt"
	"net"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"justapengu.in/bestlap/internal/acserver"
)

const (
	maxPacketSize = 4096

	// laps held for a car whose driver is not yet known are dropped past this
	maxPendingLapsPerCar = 10
)

var ErrCarNotFound = errors.New("udp: car not found")

// Listener receives the AC server's UDP plugin stream and drives an acserver.Plugin
// with it. It keeps enough state (connected cars, current session and the last lap
// leaderboard) to implement acserver.ServerPlugin for that plugin.
type Listener struct {
	localAddress  *net.UDPAddr
	remoteAddress *net.UDPAddr
	conn          *net.UDPConn

	plugin acserver.Plugin
	logger acserver.Logger

	mutex       sync.RWMutex
	cars        map[CarID]acserver.CarInfo
	session     acserver.SessionInfo
	leaderboard []*acserver.LeaderboardLine
	pendingLaps map[CarID][]acserver.Lap
}

// NewListener creates a Listener that receives events on listenPort (the AC server's
// UDP_PLUGIN_ADDRESS) and sends commands to serverAddress (the AC server's
// UDP_PLUGIN_LOCAL_PORT).
func NewListener(listenPort int, serverAddress string, plugin acserver.Plugin, logger acserver.Logger) (*Listener, error) {
	remoteAddress, err := net.ResolveUDPAddr("udp", serverAddress)

	if err != nil {
		return nil, errors.Wrapf(err, "udp: could not resolve server address %s", serverAddress)
	}

	localAddress, err := net.ResolveUDPAddr("udp", fmt.Sprintf(":%d", listenPort))

	if err != nil {
		return nil, errors.Wrapf(err, "udp: could not resolve listen port %d", listenPort)
	}

	return &Listener{
		localAddress:  localAddress,
		remoteAddress: remoteAddress,
		plugin:        plugin,
		logger:        logger,
		cars:          make(map[CarID]acserver.CarInfo),
		pendingLaps:   make(map[CarID][]acserver.Lap),
	}, nil
}

// Run initialises the plugin and processes packets until ctx is cancelled or the
// socket fails.
func (l *Listener) Run(ctx context.Context) error {
	conn, err := net.DialUDP("udp", l.localAddress, l.remoteAddress)

	if err != nil {
		return errors.Wrap(err, "udp: could not open plugin socket")
	}

	l.mutex.Lock()
	l.conn = conn
	l.mutex.Unlock()

	defer conn.Close()

	if err := l.plugin.Init(l, l.logger); err != nil {
		return errors.Wrap(err, "udp: could not initialise plugin")
	}

	l.logger.Infof("udp: listening for plugin events on %s, sending commands to %s", conn.LocalAddr(), l.remoteAddress)

	if err := l.Send(GetSessionInfo{SessionIndex: -1}); err != nil {
		l.logger.WithError(err).Warn("udp: could not request session info")
	}

	buf := make([]byte, maxPacketSize)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		_ = conn.SetReadDeadline(time.Now().Add(time.Second))

		n, err := conn.Read(buf)

		if err != nil {
			if e, ok := err.(net.Error); ok && e.Timeout() {
				continue
			}

			if ctx.Err() != nil {
				return nil
			}

			// the server not listening yet is reported as connection refused
			if errors.Is(err, syscall.ECONNREFUSED) {
				continue
			}

			if e, ok := err.(*net.OpError); ok && !e.Temporary() {
				return errors.Wrap(err, "udp: fatal error reading plugin socket")
			}

			l.logger.WithError(err).Error("udp: could not read from udp buffer")
			continue
		}

		l.handle(buf[:n])
	}
}

func (l *Listener) handle(data []byte) {
	msg, err := Decode(data)

	if errors.Cause(err) == ErrUnknownEvent {
		l.logger.WithError(err).Debug("udp: ignoring event")
		return
	} else if err != nil {
		l.logger.WithError(err).Error("udp: could not decode packet")
		return
	}

	if err := l.dispatch(msg); err != nil {
		l.logger.WithError(err).Errorf("udp: plugin could not handle event %d", msg.Event())
	}
}

func (l *Listener) dispatch(msg Message) error {
	switch m := msg.(type) {
	case Version:
		return l.plugin.OnVersion(uint16(m))
	case SessionInfo:
		session := m.ToACServer()

		l.mutex.Lock()
		l.session = session

		if m.EventType == EventNewSession {
			l.leaderboard = nil
		}
		l.mutex.Unlock()

		if m.EventType == EventNewSession {
			return l.plugin.OnNewSession(session)
		}

		return l.plugin.OnSessionInfo(session)
	case EndSession:
		return l.plugin.OnEndSession(string(m))
	case SessionCarInfo:
		car := m.ToACServer()

		if m.EventType == EventNewConnection {
			l.mutex.Lock()
			l.cars[car.CarID] = car
			l.mutex.Unlock()

			return l.plugin.OnNewConnection(car)
		}

		l.mutex.Lock()
		delete(l.cars, car.CarID)
		delete(l.pendingLaps, car.CarID)
		l.mutex.Unlock()

		return l.plugin.OnConnectionClosed(car)
	case CarInfo:
		return l.onCarInfo(m.ToACServer())
	case ClientLoaded:
		car, err := l.GetCarInfo(CarID(m))

		if errors.Cause(err) == ErrCarNotFound {
			return l.Send(GetCarInfo{CarID: CarID(m)})
		} else if err != nil {
			return err
		}

		return l.plugin.OnClientLoaded(car)
	case LapCompleted:
		return l.onLapCompleted(m)
	}

	return nil
}

func (l *Listener) onCarInfo(car acserver.CarInfo) error {
	l.mutex.Lock()

	if car.IsConnected {
		l.cars[car.CarID] = car
	}

	pending := l.pendingLaps[car.CarID]
	delete(l.pendingLaps, car.CarID)

	l.mutex.Unlock()

	if err := l.plugin.OnCarInfo(car); err != nil {
		return err
	}

	for _, lap := range pending {
		lap.DriverName = car.Driver.Name
		lap.DriverGUID = car.Driver.GUID

		if err := l.plugin.OnLapCompleted(car.CarID, lap); err != nil {
			return err
		}
	}

	return nil
}

func (l *Listener) onLapCompleted(m LapCompleted) error {
	leaderboard := make([]*acserver.LeaderboardLine, 0, len(m.Cars))

	for _, car := range m.Cars {
		leaderboard = append(leaderboard, &acserver.LeaderboardLine{
			CarID:     car.CarID,
			Time:      time.Duration(car.LapTime) * time.Millisecond,
			NumLaps:   int(car.Laps),
			Completed: car.Completed != 0,
		})
	}

	lap := acserver.Lap{
		LapTime:       time.Duration(m.LapTime) * time.Millisecond,
		Cuts:          int(m.Cuts),
		CompletedTime: time.Now(),
	}

	l.mutex.Lock()
	l.leaderboard = leaderboard
	car, ok := l.cars[m.CarID]

	if !ok {
		if len(l.pendingLaps[m.CarID]) < maxPendingLapsPerCar {
			l.pendingLaps[m.CarID] = append(l.pendingLaps[m.CarID], lap)
		}
	}
	l.mutex.Unlock()

	if !ok {
		// connected before we started listening, ask who it is
		l.logger.Debugf("udp: lap completed by unknown car %d, requesting car info", m.CarID)

		return l.Send(GetCarInfo{CarID: m.CarID})
	}

	lap.DriverName = car.Driver.Name
	lap.DriverGUID = car.Driver.GUID

	return l.plugin.OnLapCompleted(m.CarID, lap)
}

// Send encodes msg and writes it to the server.
func (l *Listener) Send(msg Message) error {
	data, err := Encode(msg)

	if err != nil {
		return err
	}

	return l.RelayCommand(data)
}

func (l *Listener) RelayCommand(data []byte) error {
	l.mutex.RLock()
	conn := l.conn
	l.mutex.RUnlock()

	if conn == nil {
		return errors.New("udp: listener is not running")
	}

	_, err := conn.Write(data)

	return errors.Wrap(err, "udp: could not write to server")
}

func (l *Listener) GetCarInfo(id CarID) (acserver.CarInfo, error) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	car, ok := l.cars[id]

	if !ok {
		return acserver.CarInfo{}, errors.Wrapf(ErrCarNotFound, "car %d", id)
	}

	return car, nil
}

func (l *Listener) GetSessionInfo() acserver.SessionInfo {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	return l.session
}

func (l *Listener) GetLeaderboard() []*acserver.LeaderboardLine {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	leaderboard := make([]*acserver.LeaderboardLine, len(l.leaderboard))

	for i, line := range l.leaderboard {
		copied := *line
		leaderboard[i] = &copied
	}

	return leaderboard
}
