// Command boardctl sends one console command to a board over its serial port and prints the reply.
//
//	boardctl --port /dev/ttyACM0 set 2024-03-15T13:45:00Z
//	boardctl --port /dev/ttyACM0 --sync-host   # set the board clock from this machine
package main

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/tarm/serial"

	"github.com/ajanata/tinygo-drivers/console"
)

var (
	port     = flag.StringP("port", "p", "/dev/ttyACM0", "serial device of the board")
	baud     = flag.IntP("baud", "b", 115200, "baud rate")
	timeout  = flag.Duration("timeout", 2*time.Second, "how long to wait for the reply")
	syncHost = flag.Bool("sync-host", false, "set the board clock to this machine's UTC time")
)

func main() {
	flag.Parse()
	log.SetFlags(0)
	log.SetPrefix("boardctl: ")

	line := commandLine(flag.Args())
	if *syncHost {
		line = "set " + time.Now().UTC().Format(time.RFC3339)
	}
	if line == "" {
		log.Fatal("no command given")
	}

	p, err := serial.OpenPort(&serial.Config{
		Name:        *port,
		Baud:        *baud,
		ReadTimeout: 100 * time.Millisecond,
	})
	if err != nil {
		log.Fatalf("open %s: %v", *port, err)
	}
	defer p.Close()

	reply, err := roundTrip(p, line, *timeout)
	os.Stdout.Write(reply)
	if err != nil {
		log.Fatal(err)
	}
}

// commandLine quotes args so the board's shell splitting gives them back unchanged.
func commandLine(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\"'\\#") {
			a = strconv.Quote(a)
		}
		quoted[i] = a
	}
	return strings.Join(quoted, " ")
}

// roundTrip writes line and collects output until the next prompt. The prompt itself is not returned.
func roundTrip(rw io.ReadWriter, line string, timeout time.Duration) ([]byte, error) {
	if _, err := io.WriteString(rw, line+"\n"); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	buf := make([]byte, 128)
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		n, err := rw.Read(buf)
		out.Write(buf[:n])
		if i := bytes.LastIndex(out.Bytes(), []byte(console.Prompt)); i >= 0 && i == out.Len()-len(console.Prompt) {
			return trimEcho(out.Bytes()[:i], line), nil
		}
		if err != nil && err != io.EOF {
			return out.Bytes(), err
		}
	}
	return out.Bytes(), fmt.Errorf("no prompt after %v", timeout)
}

// trimEcho drops a leading prompt and the echoed command, if the board echoes input.
func trimEcho(b []byte, line string) []byte {
	b = bytes.TrimPrefix(b, []byte(console.Prompt))
	b = bytes.TrimPrefix(b, []byte(line))
	return bytes.TrimLeft(b, "\r\n")
}
