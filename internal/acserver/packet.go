package acserver

import (
	"bytes"
	"encoding/binary"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/unicode/utf32"
)

// Packet is a little-endian encoder/decoder for the AC plugin protocol.
// Reads past the end of the packet are recorded and reported by Err.
type Packet struct {
	buf *bytes.Buffer
	err error
}

var utf32LittleEndian = utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM)

func NewPacket(b []byte) *Packet {
	return &Packet{
		buf: bytes.NewBuffer(b),
	}
}

func (p *Packet) Err() error {
	return p.err
}

func (p *Packet) Bytes() []byte {
	return p.buf.Bytes()
}

func (p *Packet) setErr(err error) {
	if p.err == nil && err != nil {
		p.err = err
	}
}

func (p *Packet) Write(val interface{}) {
	p.setErr(errors.Wrapf(binary.Write(p.buf, binary.LittleEndian, val), "could not write %T", val))
}

// strings are prefixed with a uint8 length, longer ones are cut short
const maxStringLength = 255

// WriteString writes s as length-prefixed bytes, cut to 255 bytes on a rune boundary.
func (p *Packet) WriteString(s string) {
	if len(s) > maxStringLength {
		cut := maxStringLength

		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}

		s = s[:cut]
	}

	p.Write(uint8(len(s)))
	p.Write([]byte(s))
}

// WriteUTF32String writes s as a rune count followed by UTF-32LE, cut to 255 runes.
func (p *Packet) WriteUTF32String(s string) {
	runes := []rune(s)

	if len(runes) > maxStringLength {
		runes = runes[:maxStringLength]
	}

	encoded, err := utf32LittleEndian.NewEncoder().Bytes([]byte(string(runes)))

	if err != nil {
		p.setErr(errors.Wrap(err, "could not encode utf32 string"))
		return
	}

	p.Write(uint8(len(runes)))
	p.Write(encoded)
}

func (p *Packet) Read(out interface{}) {
	if p.err != nil {
		return
	}

	p.setErr(errors.Wrapf(binary.Read(p.buf, binary.LittleEndian, out), "could not read %T", out))
}

func (p *Packet) ReadUint8() uint8 {
	var i uint8

	p.Read(&i)

	return i
}

func (p *Packet) ReadString() string {
	size := p.ReadUint8()

	if size == 0 || p.err != nil {
		return ""
	}

	b := make([]byte, size)

	p.Read(b)

	return string(b)
}

func (p *Packet) ReadUTF32String() string {
	size := p.ReadUint8()

	if size == 0 || p.err != nil {
		return ""
	}

	b := make([]byte, int(size)*4)

	p.Read(b)

	if p.err != nil {
		return ""
	}

	bs, err := utf32LittleEndian.NewDecoder().Bytes(b)

	if err != nil {
		p.setErr(errors.Wrap(err, "could not decode utf32 string"))
		return ""
	}

	return string(bs)
}

func (p *Packet) ReadUint16() uint16 {
	var i uint16

	p.Read(&i)

	return i
}

func (p *Packet) ReadInt16() int16 {
	var i int16

	p.Read(&i)

	return i
}

func (p *Packet) ReadUint32() uint32 {
	var i uint32

	p.Read(&i)

	return i
}

func (p *Packet) ReadInt32() int32 {
	var i int32

	p.Read(&i)

	return i
}

func (p *Packet) ReadCarID() CarID {
	return CarID(p.ReadUint8())
}
