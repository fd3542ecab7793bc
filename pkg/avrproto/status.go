package avrproto

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrMalformedStatus is returned when a 48-byte status payload fails its
// marker-byte validation.
var ErrMalformedStatus = errors.New("avrproto: malformed status payload")

// privateByte is the receiver's private VFD byte for the roman
// numeral two (privateRune), reversibly mapped to/from U+2161 when decoding/encoding
// line text.
const (
	privateByte = 0x60
	privateRune = 'Ⅱ'
)

// Status is a single decoded AVR status update: the two VFD text lines
// and the 14-byte icon bitfield.
type Status struct {
	Line1 string
	Icons [14]byte
	Line2 string
}

// ParseStatus parses the 48-byte data section of an AVR status datagram
// (i.e. the payload returned by Decode(frame, AVRPCStatus)).
func ParseStatus(data []byte) (Status, error) {
	if len(data) != 48 {
		return Status{}, fmt.Errorf("%w: length %d", ErrMalformedStatus, len(data))
	}
	if data[0] != 0xF0 || data[15] != 0x00 ||
		data[16] != 0xF1 || data[31] != 0x00 ||
		data[32] != 0xF2 || data[47] != 0x00 {
		return Status{}, fmt.Errorf("%w: bad marker bytes", ErrMalformedStatus)
	}

	var s Status
	s.Line1 = decodeText(data[1:15])
	s.Line2 = decodeText(data[17:31])
	copy(s.Icons[:], data[33:47])
	return s, nil
}

// Data re-creates the raw 48-byte data section of an AVR status datagram.
func (s Status) Data() []byte {
	out := make([]byte, 0, 48)
	out = append(out, 0xF0)
	out = append(out, encodeText(s.Line1, 14)...)
	out = append(out, 0x00, 0xF1)
	out = append(out, encodeText(s.Line2, 14)...)
	out = append(out, 0x00, 0xF2)
	out = append(out, s.Icons[:]...)
	out = append(out, 0x00)
	return out
}

// decodeText converts one 14-byte VFD line to text, removing the
// trailing space padding the receiver (and encodeText) fills it with.
func decodeText(b []byte) string {
	runes := make([]rune, len(b))
	for i, c := range b {
		if c == privateByte {
			runes[i] = privateRune
		} else {
			runes[i] = rune(c)
		}
	}
	return strings.TrimRight(string(runes), " ")
}

func encodeText(s string, width int) []byte {
	runes := []rune(s)
	out := make([]byte, width)
	for i := 0; i < width; i++ {
		if i >= len(runes) {
			out[i] = ' '
			continue
		}
		if runes[i] == privateRune {
			out[i] = privateByte
		} else {
			out[i] = byte(runes[i])
		}
	}
	return out
}

// Standby reports whether the receiver's icon bitfield is all-zero,
// which the receiver uses to indicate standby.
func (s Status) Standby() bool {
	for _, b := range s.Icons {
		if b != 0 {
			return false
		}
	}
	return true
}

// Muted reports whether the VFD is showing the blinking "MUTE" legend.
func (s Status) Muted() bool {
	l1 := strings.TrimSpace(s.Line1)
	l2 := strings.TrimSpace(s.Line2)
	return (l1 == "MUTE" || l1 == "") && l2 == ""
}

// Volume returns the currently displayed volume in dB, or (0, false) if
// line 2 is not currently showing a volume reading.
func (s Status) Volume() (int, bool) {
	line := strings.TrimSpace(s.Line2)
	if !strings.HasPrefix(line, "VOL ") || !strings.HasSuffix(line, "dB") {
		return 0, false
	}
	numStr := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(line, "VOL"), "dB"))
	n, err := strconv.Atoi(numStr)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Digital returns the digital input gate label shown after a "/" in
// line 1, or "" if none is currently visible.
func (s Status) Digital() (string, bool) {
	parts := strings.SplitN(s.Line1, "/", 2)
	if len(parts) != 2 {
		return "", false
	}
	dig := strings.TrimSpace(parts[1])
	if dig == "" {
		return "", false
	}
	return dig, true
}

// Surround mode names.
const (
	DolbyDigitalEX   = "DOLBY DIGITAL EX"
	DolbyDigital     = "DOLBY DIGITAL"
	DolbyProLogicII  = "DOLBY PRO LOGIC II"
	DolbyProLogic    = "DOLBY PRO LOGIC"
	Dolby3Stereo     = "DOLBY 3 STEREO"
	Stereo           = "STEREO"
	DolbyHeadphone   = "DOLBY HEADPHONE"
	DolbyVirtual     = "DOLBY VIRTUAL"
	DTSES            = "DTS ES"
	DTS              = "DTS"
	Logic7           = "LOGIC 7"
	VMax             = "VMAX"
	DSP              = "DSP"
	SevenChStereo    = "7CH.STEREO"
	FiveChStereo     = "5CH.STEREO"
	SurroundOff      = "SURR.OFF"
)

// Surround returns the set of active surround/processing modes, decoded
// from icons[0:4]. Per the reverse-engineered bit table, the "EX"/"II"
// variants are tested first and are mutually exclusive with their base
// mode. Note: one disagreeing draft of the source maps DSP to the same
// 0x20 bit this table assigns to 5CH.STEREO; this table follows the
// most recent source revision, which is normative.
func (s Status) Surround() map[string]bool {
	buf := s.Icons[0:4]
	ret := map[string]bool{}
	if buf[0]&0x20 != 0 {
		ret[DolbyDigitalEX] = true
	} else if buf[0]&0x40 != 0 {
		ret[DolbyDigital] = true
	}
	if buf[0]&0x04 != 0 {
		ret[DolbyProLogicII] = true
	} else if buf[0]&0x08 != 0 {
		ret[DolbyProLogic] = true
	}
	if buf[0]&0x01 != 0 {
		ret[Dolby3Stereo] = true
	}
	if buf[1]&0x40 != 0 {
		ret[Stereo] = true
	}
	if buf[1]&0x10 != 0 {
		ret[DolbyHeadphone] = true
	}
	if buf[1]&0x04 != 0 {
		ret[DolbyVirtual] = true
	}
	if buf[2]&0x20 != 0 {
		ret[DTSES] = true
	} else if buf[2]&0x40 != 0 {
		ret[DTS] = true
	}
	if buf[2]&0x08 != 0 {
		ret[Logic7] = true
	}
	if buf[2]&0x02 != 0 {
		ret[VMax] = true
	}
	if buf[3]&0x80 != 0 {
		ret[DSP] = true
	}
	if buf[3]&0x10 != 0 {
		ret[SevenChStereo] = true
	} else if buf[3]&0x20 != 0 {
		ret[FiveChStereo] = true
	}
	if buf[3]&0x02 != 0 {
		ret[SurroundOff] = true
	}
	return ret
}

// Channel names present in the input signal.
const (
	ChannelL   = "L"
	ChannelC   = "C"
	ChannelR   = "R"
	ChannelLFE = "LFE"
	ChannelSL  = "SL"
	ChannelSR  = "SR"
	ChannelSBL = "SBL"
	ChannelSBR = "SBR"
)

// Channels returns the channels present in the input signal, decoded
// from icons[4:8].
func (s Status) Channels() map[string]bool {
	buf := s.Icons[4:8]
	ret := map[string]bool{}
	if buf[0]&0x20 != 0 {
		ret[ChannelL] = true
	}
	if buf[0]&0x02 != 0 {
		ret[ChannelC] = true
	}
	if buf[1]&0x20 != 0 {
		ret[ChannelR] = true
	}
	if buf[1]&0x04 != 0 {
		ret[ChannelLFE] = true
	}
	if buf[2]&0x80 != 0 {
		ret[ChannelSL] = true
	}
	if buf[2]&0x04 != 0 {
		ret[ChannelSR] = true
	}
	if buf[3]&0x40 != 0 {
		ret[ChannelSBL] = true
	}
	if buf[3]&0x02 != 0 {
		ret[ChannelSBR] = true
	}
	return ret
}

// Speakers returns the set of speakers the AVR is currently using,
// decoded from icons[4:8]. Uppercase entries denote "large" speakers,
// lowercase entries denote "small" speakers.
func (s Status) Speakers() map[string]bool {
	buf := s.Icons[4:8]
	ret := map[string]bool{}
	if buf[0]&0x80 != 0 {
		ret["L"] = true
	} else if buf[0]&0x40 != 0 {
		ret["l"] = true
	}
	if buf[0]&0x08 != 0 {
		ret["C"] = true
	} else if buf[0]&0x04 != 0 {
		ret["c"] = true
	}
	if buf[1]&0x80 != 0 {
		ret["R"] = true
	} else if buf[1]&0x40 != 0 {
		ret["r"] = true
	}
	if buf[1]&0x08 != 0 {
		ret["LFE"] = true
	}
	if buf[1]&0x02 != 0 {
		ret["SL"] = true
	} else if buf[1]&0x01 != 0 {
		ret["sl"] = true
	}
	if buf[2]&0x10 != 0 {
		ret["SR"] = true
	} else if buf[2]&0x08 != 0 {
		ret["sr"] = true
	}
	if buf[3]&0x20 != 0 {
		ret["SBL"] = true
	} else if buf[3]&0x80 != 0 {
		ret["sbl"] = true
	}
	if buf[3]&0x01 != 0 {
		ret["SBR"] = true
	} else if buf[3]&0x04 != 0 {
		ret["sbr"] = true
	}
	return ret
}

// Source tags.
const (
	SourceDVD  = "DVD"
	SourceCD   = "CD"
	SourceTape = "TAPE"
	Source6CH  = "6CH"
	Source8CH  = "8CH"
	SourceVID1 = "VID1"
	SourceVID2 = "VID2"
	SourceVID3 = "VID3"
	SourceVID4 = "VID4"
	SourceFM   = "FM"
	SourceAM   = "AM"
)

// Source decodes the selected source from icons[8:12]. It returns
// ("", false) when no source or more than one source matches (e.g.
// during boot), since the source is only meaningful when exactly one
// is active.
func (s Status) Source() (string, bool) {
	buf := s.Icons[8:12]
	ret := map[string]bool{}
	if buf[0]&0x30 != 0 {
		ret[SourceDVD] = true
	}
	if buf[1]&0xC0 != 0 {
		ret[SourceCD] = true
	}
	if buf[2]&0x60 != 0 {
		ret[SourceTape] = true
	}
	if buf[2]&0x06 != 0 {
		ret[Source6CH] = true
	}
	if buf[3]&0x60 != 0 {
		ret[Source8CH] = true
	}
	if buf[0]&0xC0 != 0 {
		ret[SourceVID1] = true
	}
	if buf[0]&0x03 != 0 {
		ret[SourceVID2] = true
	}
	if buf[1]&0x30 != 0 {
		ret[SourceVID3] = true
	}
	if buf[1]&0x01 != 0 && buf[2]&0x80 != 0 {
		ret[SourceVID4] = true
	}
	if buf[1]&0x04 != 0 {
		ret[SourceFM] = true
	}
	if buf[1]&0x02 != 0 {
		ret[SourceAM] = true
	}
	if len(ret) != 1 {
		return "", false
	}
	for k := range ret {
		return k, true
	}
	return "", false
}

// SortedKeys returns the keys of a string set in sorted order, used to
// render map-valued derived views (surround modes, channels, speakers)
// deterministically.
func SortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SurroundString renders a set of surround modes as a "+"-joined,
// sorted string.
func SurroundString(modes map[string]bool) string {
	return strings.Join(SortedKeys(modes), "+")
}

var surroundShortNames = map[string]string{
	DolbyDigitalEX:  "DDEX",
	DolbyDigital:    "DD",
	DolbyProLogicII: "DPL2",
	DolbyProLogic:   "DPL",
	Dolby3Stereo:    "D3S",
	Stereo:          "ST",
	DolbyHeadphone:  "DH",
	DolbyVirtual:    "DV",
	DTSES:           "DTES",
	DTS:             "DTS",
	Logic7:          "L7",
	VMax:            "VMAX",
	DSP:             "DSP",
	SevenChStereo:   "7CHS",
	FiveChStereo:    "5CHS",
	SurroundOff:     "SROF",
}

// SurroundStringShort renders an abbreviated "+"-joined string for a set
// of surround modes, or "***" if more than limit modes are active.
func SurroundStringShort(modes map[string]bool, limit int) string {
	if len(modes) > limit {
		return "***"
	}
	short := make([]string, 0, len(modes))
	for _, m := range SortedKeys(modes) {
		short = append(short, surroundShortNames[m])
	}
	return strings.Join(short, "+")
}

// ChannelsString renders a channel set as "X.Y" (e.g. "5.1", "7.1").
func ChannelsString(channels map[string]bool) string {
	lfe := 0
	if channels[ChannelLFE] {
		lfe = 1
	}
	return fmt.Sprintf("%d.%d", len(channels)-lfe, lfe)
}

var speakerGroups = [][]string{
	{"L", "R", "l", "r"},
	{"C", "c"},
	{"LFE"},
	{"SL", "SR", "sl", "sr"},
	{"SBL", "SBR", "sbl", "sbr"},
}

// SpeakersString renders the speaker set as a "/"-separated list of
// "+"-joined groups (front, center, LFE, surround, surround-back).
func SpeakersString(speakers map[string]bool) string {
	var groups []string
	for _, g := range speakerGroups {
		var present []string
		for _, name := range g {
			if speakers[name] {
				present = append(present, name)
			}
		}
		if len(present) > 0 {
			sort.Strings(present)
			groups = append(groups, strings.Join(present, "+"))
		}
	}
	return strings.Join(groups, "/")
}

// SpeakersStringShort renders the speaker set as "X.Y" with the number
// of speakers (mirroring ChannelsString).
func SpeakersStringShort(speakers map[string]bool) string {
	lfe := 0
	if speakers["LFE"] {
		lfe = 1
	}
	return fmt.Sprintf("%d.%d", len(speakers)-lfe, lfe)
}
