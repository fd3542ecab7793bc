// Package hdmiproto implements the wire format spoken by the Marmitek
// Connect411 HDMI switch's RS-232 command-line interface: a
// line-oriented protocol with a banner, a ">" prompt, and single-byte
// commands.
package hdmiproto

import "bytes"

// LineTerminator is wrapped around every command sent to the switch
// and terminates every line the switch sends back.
const LineTerminator = "\n\r"

// Prompt is the byte the switch appends after each response to signal
// it is ready for another command.
const Prompt = '>'

// Banner is the startup message the switch prints once, on power-up,
// before its first prompt.
const Banner = "Marmitek BV, The Netherlands. All rights reserved. www.marmitek.com"

// Codes maps symbolic input-select/utility commands to the single byte
// the switch expects on the wire.
var Codes = map[string]byte{
	"1":       '1',
	"2":       '2',
	"3":       '3',
	"4":       '4',
	"on":      '5',
	"off":     '5',
	"on/off":  '5',
	"version": 'v',
	"help":    '?',
}

// CodeNames maps each wire byte back to the symbolic name(s) that
// produce it, used to interpret echoed/unsolicited bytes read from the
// switch.
var CodeNames = buildCodeNames()

func buildCodeNames() map[byte][]string {
	names := make(map[byte][]string)
	for name, code := range Codes {
		names[code] = append(names[code], name)
	}
	return names
}

// Frame wraps a single command byte in the switch's line terminator,
// ready to write to the serial port.
func Frame(code byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(LineTerminator)
	buf.WriteByte(code)
	buf.WriteString(LineTerminator)
	return buf.Bytes()
}

// StripResponse removes a trailing "\r\n>" (or any suffix of it) from a
// line read back from the switch.
func StripResponse(line []byte) []byte {
	trimmed := bytes.TrimRight(line, "\r\n>")
	return trimmed
}

// IsStandbyByte reports whether b is the NUL byte the switch emits
// when it is powered off, rather than any real response text.
func IsStandbyByte(b byte) bool {
	return b == 0x00
}
