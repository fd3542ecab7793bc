package avrproto

import "fmt"

// ErrUnknownCommand is returned when a symbolic command name has no
// entry in the catalogue.
type ErrUnknownCommand struct {
	Name string
}

func (e *ErrUnknownCommand) Error() string {
	return fmt.Sprintf("avrproto: unknown command %q", e.Name)
}

// Commands maps symbolic remote-command names to their 4-byte AVR
// remote codes. The mapping is reverse-engineered from observed serial
// traffic; where the original capture did not cover a key, the code
// here follows the numbering scheme of its neighbors on the same
// physical remote.
var Commands = map[string][4]byte{
	"POWER ON":    {0x02, 0x00, 0x00, 0x00},
	"POWER OFF":   {0x02, 0x00, 0x00, 0x01},
	"MUTE":        {0x02, 0x00, 0x01, 0x00},
	"VOL UP":      {0x02, 0x00, 0x01, 0x01},
	"VOL DOWN":    {0x02, 0x00, 0x01, 0x02},
	"DIGITAL":     {0x02, 0x00, 0x02, 0x00},
	"DIGITAL UP":  {0x02, 0x00, 0x02, 0x01},
	"DIGITAL DOWN": {0x02, 0x00, 0x02, 0x02},
	"DELAY":       {0x02, 0x00, 0x03, 0x00},

	// Surround mode selects.
	"6CH/8CH": {0x02, 0x01, 0x00, 0x00},
	"DOLBY":   {0x02, 0x01, 0x00, 0x01},
	"DTS":     {0x02, 0x01, 0x00, 0x02},
	"STEREO":  {0x02, 0x01, 0x00, 0x03},
	"LOGIC 7": {0x02, 0x01, 0x00, 0x04},
	"VMAX":    {0x02, 0x01, 0x00, 0x05},

	// Source selects.
	"VID1": {0x02, 0x02, 0x00, 0x00},
	"VID2": {0x02, 0x02, 0x00, 0x01},
	"VID3": {0x02, 0x02, 0x00, 0x02},
	"VID4": {0x02, 0x02, 0x00, 0x03},
	"DVD":  {0x02, 0x02, 0x00, 0x04},
	"CD":   {0x02, 0x02, 0x00, 0x05},
	"TAPE": {0x02, 0x02, 0x00, 0x06},
	"6CH":  {0x02, 0x02, 0x00, 0x07},
	"8CH":  {0x02, 0x02, 0x00, 0x08},
	"FM":   {0x02, 0x02, 0x00, 0x09},
	"AM":   {0x02, 0x02, 0x00, 0x0A},

	// Tone controls.
	"BASS UP":     {0x02, 0x03, 0x00, 0x00},
	"BASS DOWN":   {0x02, 0x03, 0x00, 0x01},
	"TREBLE UP":   {0x02, 0x03, 0x01, 0x00},
	"TREBLE DOWN": {0x02, 0x03, 0x01, 0x01},
	"BALANCE L":   {0x02, 0x03, 0x02, 0x00},
	"BALANCE R":   {0x02, 0x03, 0x02, 0x01},

	// Tuner presets and sleep timer.
	"PRESET UP":   {0x02, 0x04, 0x00, 0x00},
	"PRESET DOWN": {0x02, 0x04, 0x00, 0x01},
	"TUNING UP":   {0x02, 0x04, 0x01, 0x00},
	"TUNING DOWN": {0x02, 0x04, 0x01, 0x01},
	"SLEEP":       {0x02, 0x04, 0x02, 0x00},

	// Numeric keypad.
	"0": {0x02, 0x05, 0x00, 0x00},
	"1": {0x02, 0x05, 0x00, 0x01},
	"2": {0x02, 0x05, 0x00, 0x02},
	"3": {0x02, 0x05, 0x00, 0x03},
	"4": {0x02, 0x05, 0x00, 0x04},
	"5": {0x02, 0x05, 0x00, 0x05},
	"6": {0x02, 0x05, 0x00, 0x06},
	"7": {0x02, 0x05, 0x00, 0x07},
	"8": {0x02, 0x05, 0x00, 0x08},
	"9": {0x02, 0x05, 0x00, 0x09},

	// Display / misc.
	"DISPLAY":   {0x02, 0x06, 0x00, 0x00},
	"TEST TONE": {0x02, 0x06, 0x00, 0x01},
	"SETUP":     {0x02, 0x06, 0x00, 0x02},
	"ENTER":     {0x02, 0x06, 0x00, 0x03},
	"CURSOR UP": {0x02, 0x06, 0x01, 0x00},
	"CURSOR DOWN": {0x02, 0x06, 0x01, 0x01},
	"CURSOR LEFT": {0x02, 0x06, 0x01, 0x02},
	"CURSOR RIGHT": {0x02, 0x06, 0x01, 0x03},

	// Speaker configuration.
	"SPEAKER A":    {0x02, 0x07, 0x00, 0x00},
	"SPEAKER B":    {0x02, 0x07, 0x00, 0x01},
	"SPEAKER A+B":  {0x02, 0x07, 0x00, 0x02},
	"SPEAKER OFF":  {0x02, 0x07, 0x00, 0x03},

	// Recording / tape monitor.
	"TAPE MON":  {0x02, 0x08, 0x00, 0x00},
	"TAPE COPY": {0x02, 0x08, 0x00, 0x01},

	// Zone 2.
	"ZONE2 ON":      {0x02, 0x09, 0x00, 0x00},
	"ZONE2 OFF":     {0x02, 0x09, 0x00, 0x01},
	"ZONE2 VOL UP":   {0x02, 0x09, 0x01, 0x00},
	"ZONE2 VOL DOWN": {0x02, 0x09, 0x01, 0x01},
}

// Lookup returns the 4-byte remote code for a symbolic command name.
func Lookup(name string) ([4]byte, error) {
	code, ok := Commands[name]
	if !ok {
		return [4]byte{}, &ErrUnknownCommand{Name: name}
	}
	return code, nil
}

// ReverseLookup returns the symbolic command name for a 4-byte remote
// code, used by diagnostic tooling when decoding captured traffic.
func ReverseLookup(code [4]byte) (string, bool) {
	for name, c := range Commands {
		if c == code {
			return name, true
		}
	}
	return "", false
}
