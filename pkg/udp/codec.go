package udp

import (
	"github.com/pkg/errors"

	"justapengu.in/bestlap/internal/acserver"
)

var ErrUnknownEvent = errors.New("udp: unknown event")

// Decode parses a packet sent by the AC server to its UDP plugin. Events this package has
// no model for return an error whose cause is ErrUnknownEvent.
func Decode(data []byte) (Message, error) {
	p := acserver.NewPacket(data)

	eventType := Event(p.ReadUint8())

	if err := p.Err(); err != nil {
		return nil, errors.Wrap(err, "udp: empty packet")
	}

	var msg Message

	switch eventType {
	case EventNewSession, EventSessionInfo:
		msg = readSessionInfo(p, eventType)
	case EventNewConnection, EventConnectionClosed:
		msg = SessionCarInfo{
			DriverName: p.ReadUTF32String(),
			DriverGUID: DriverGUID(p.ReadUTF32String()),
			CarID:      p.ReadCarID(),
			CarModel:   p.ReadString(),
			CarSkin:    p.ReadString(),
			EventType:  eventType,
		}
	case EventCarInfo:
		msg = CarInfo{
			CarID:       p.ReadCarID(),
			IsConnected: p.ReadUint8() != 0,
			CarModel:    p.ReadUTF32String(),
			CarSkin:     p.ReadUTF32String(),
			DriverName:  p.ReadUTF32String(),
			DriverTeam:  p.ReadUTF32String(),
			DriverGUID:  DriverGUID(p.ReadUTF32String()),
		}
	case EventEndSession:
		msg = EndSession(p.ReadUTF32String())
	case EventVersion:
		msg = Version(p.ReadUint8())
	case EventClientLoaded:
		msg = ClientLoaded(p.ReadCarID())
	case EventLapCompleted:
		msg = readLapCompleted(p)
	default:
		return nil, errors.Wrapf(ErrUnknownEvent, "event %d", eventType)
	}

	if err := p.Err(); err != nil {
		return nil, errors.Wrapf(err, "udp: truncated packet for event %d", eventType)
	}

	return msg, nil
}

func readSessionInfo(p *acserver.Packet, eventType Event) SessionInfo {
	return SessionInfo{
		Version:             p.ReadUint8(),
		SessionIndex:        p.ReadUint8(),
		CurrentSessionIndex: p.ReadUint8(),
		SessionCount:        p.ReadUint8(),
		ServerName:          p.ReadUTF32String(),
		Track:               p.ReadString(),
		TrackConfig:         p.ReadString(),
		Name:                p.ReadString(),
		Type:                acserver.SessionType(p.ReadUint8()),
		Time:                p.ReadUint16(),
		Laps:                p.ReadUint16(),
		WaitTime:            p.ReadUint16(),
		AmbientTemp:         p.ReadUint8(),
		RoadTemp:            p.ReadUint8(),
		WeatherGraphics:     p.ReadString(),
		ElapsedMilliseconds: p.ReadInt32(),
		EventType:           eventType,
	}
}

func readLapCompleted(p *acserver.Packet) LapCompleted {
	lap := LapCompleted{
		CarID:   p.ReadCarID(),
		LapTime: p.ReadUint32(),
		Cuts:    p.ReadUint8(),
	}

	lap.CarsCount = p.ReadUint8()

	for i := 0; i < int(lap.CarsCount) && p.Err() == nil; i++ {
		lap.Cars = append(lap.Cars, &LapCompletedCar{
			CarID:     p.ReadCarID(),
			LapTime:   p.ReadUint32(),
			Laps:      p.ReadUint16(),
			Completed: p.ReadUint8(),
		})
	}

	return lap
}

// Encode builds the packet for msg. It is the inverse of Decode for the events Decode
// understands, plus the GetCarInfo and GetSessionInfo requests.
func Encode(msg Message) ([]byte, error) {
	p := acserver.NewPacket(nil)
	p.Write(msg.Event())

	switch m := msg.(type) {
	case SessionInfo:
		p.Write(m.Version)
		p.Write(m.SessionIndex)
		p.Write(m.CurrentSessionIndex)
		p.Write(m.SessionCount)
		p.WriteUTF32String(m.ServerName)
		p.WriteString(m.Track)
		p.WriteString(m.TrackConfig)
		p.WriteString(m.Name)
		p.Write(m.Type)
		p.Write(m.Time)
		p.Write(m.Laps)
		p.Write(m.WaitTime)
		p.Write(m.AmbientTemp)
		p.Write(m.RoadTemp)
		p.WriteString(m.WeatherGraphics)
		p.Write(m.ElapsedMilliseconds)
	case SessionCarInfo:
		p.WriteUTF32String(m.DriverName)
		p.WriteUTF32String(string(m.DriverGUID))
		p.Write(m.CarID)
		p.WriteString(m.CarModel)
		p.WriteString(m.CarSkin)
	case CarInfo:
		p.Write(m.CarID)

		if m.IsConnected {
			p.Write(uint8(1))
		} else {
			p.Write(uint8(0))
		}

		p.WriteUTF32String(m.CarModel)
		p.WriteUTF32String(m.CarSkin)
		p.WriteUTF32String(m.DriverName)
		p.WriteUTF32String(m.DriverTeam)
		p.WriteUTF32String(string(m.DriverGUID))
	case EndSession:
		p.WriteUTF32String(string(m))
	case Version:
		p.Write(uint8(m))
	case ClientLoaded:
		p.Write(CarID(m))
	case LapCompleted:
		p.Write(m.CarID)
		p.Write(m.LapTime)
		p.Write(m.Cuts)
		p.Write(uint8(len(m.Cars)))

		for _, car := range m.Cars {
			p.Write(car.CarID)
			p.Write(car.LapTime)
			p.Write(car.Laps)
			p.Write(car.Completed)
		}
	case GetCarInfo:
		p.Write(m.CarID)
	case GetSessionInfo:
		p.Write(m.SessionIndex)
	default:
		return nil, errors.Wrapf(ErrUnknownEvent, "cannot encode event %d", msg.Event())
	}

	if err := p.Err(); err != nil {
		return nil, err
	}

	return p.Bytes(), nil
}
