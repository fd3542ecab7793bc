// Command hifictl-avrcmd sends a single symbolic AVR command over a
// serial port and exits, for diagnosing a receiver outside the full
// hifictl daemon. It also exposes the command catalogue's reverse
// lookup so a captured 4-byte remote code can be decoded back to its
// symbolic name.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/jherland/hifictl/pkg/avrproto"
	"github.com/jherland/hifictl/pkg/serialport"
)

func main() {
	device := flag.String("device", "/dev/ttyUSB1", "AVR serial device path")
	baud := flag.Int("baud", 38400, "AVR serial baud rate")
	list := flag.Bool("list", false, "List every known command name and exit")
	decode := flag.String("decode", "", "Decode a captured 4-byte remote code (hex, e.g. 0200 0001) back to its symbolic name and exit")
	flag.Parse()

	if *list {
		listCommands()
		return
	}

	if *decode != "" {
		if err := decodeCode(*decode); err != nil {
			fmt.Fprintln(os.Stderr, "hifictl-avrcmd:", err)
			os.Exit(1)
		}
		return
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: hifictl-avrcmd [-device path] [-baud rate] <COMMAND NAME>")
		fmt.Fprintln(os.Stderr, "       hifictl-avrcmd -list")
		fmt.Fprintln(os.Stderr, "       hifictl-avrcmd -decode <hex>")
		os.Exit(2)
	}
	name := flag.Arg(0)

	code, err := avrproto.Lookup(name)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hifictl-avrcmd:", err)
		os.Exit(1)
	}

	frame, err := avrproto.Encode(code[:], avrproto.PCAVRCommand)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hifictl-avrcmd: encode:", err)
		os.Exit(1)
	}

	port, err := serialport.Open(serialport.Config{
		Path:     *device,
		BaudRate: *baud,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "hifictl-avrcmd: open:", err)
		os.Exit(1)
	}
	defer port.Close()

	port.SetReadTimeout(time.Second)
	if _, err := port.Write(frame); err != nil {
		fmt.Fprintln(os.Stderr, "hifictl-avrcmd: write:", err)
		os.Exit(1)
	}

	fmt.Printf("sent %q (%x) to %s\n", name, code, *device)
}

func listCommands() {
	names := make([]string, 0, len(avrproto.Commands))
	for name := range avrproto.Commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%-16s %x\n", name, avrproto.Commands[name])
	}
}

func decodeCode(s string) error {
	raw, err := hex.DecodeString(stripSpaces(s))
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if len(raw) != 4 {
		return fmt.Errorf("decode: want 4 bytes, got %d", len(raw))
	}
	var code [4]byte
	copy(code[:], raw)

	name, ok := avrproto.ReverseLookup(code)
	if !ok {
		fmt.Printf("%x: no known command\n", code)
		return nil
	}
	fmt.Printf("%x: %s\n", code, name)
	return nil
}

func stripSpaces(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' {
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}
