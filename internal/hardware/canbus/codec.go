package canbus

import (
	"encoding/binary"
	"fmt"
	"image/color"
	"math"

	"go.einride.tech/can"
)

// Attitude frames carry the heading as uint16 in [0, 36000) followed by
// roll as int16. Depth frames carry depth and surge speed as int16. All
// values are little-endian hundredths of a unit.
const scale = 100.0

// EncodeThrust builds the command frame for one motor channel.
func EncodeThrust(base uint32, channel, power int) can.Frame {
	f := can.Frame{
		ID:     base + uint32(channel),
		Length: 1,
	}
	f.Data[0] = byte(int8(power))
	return f
}

func EncodeLight(id uint32, c color.RGBA) can.Frame {
	f := can.Frame{ID: id, Length: 3}
	f.Data[0], f.Data[1], f.Data[2] = c.R, c.G, c.B
	return f
}

func DecodePair(f can.Frame) (a, b float64, err error) {
	if f.Length < 4 {
		return 0, 0, fmt.Errorf("frame 0x%X expects DLC 4, got %d", f.ID, f.Length)
	}
	a = float64(int16(binary.LittleEndian.Uint16(f.Data[0:2]))) / scale
	b = float64(int16(binary.LittleEndian.Uint16(f.Data[2:4]))) / scale
	return a, b, nil
}

// DecodeAttitude reads heading and roll. Headings are wrapped into [0, 360).
func DecodeAttitude(f can.Frame) (yaw, roll float64, err error) {
	if f.Length < 4 {
		return 0, 0, fmt.Errorf("frame 0x%X expects DLC 4, got %d", f.ID, f.Length)
	}
	yaw = math.Mod(float64(binary.LittleEndian.Uint16(f.Data[0:2]))/scale, 360)
	roll = float64(int16(binary.LittleEndian.Uint16(f.Data[2:4]))) / scale
	return yaw, roll, nil
}
