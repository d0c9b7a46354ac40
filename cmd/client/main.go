// Command client is a minimal terminal chat client: one goroutine prints
// everything the server sends, the main loop relays stdin lines.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/gookit/color"

	"github.com/NicolasHaas/gotalk/pkg/model"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:5000", "server address (host:port)")
	noColor := flag.Bool("no-color", false, "disable colored output")
	flag.Parse()

	if *noColor {
		color.Disable()
	}

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer conn.Close()

	go func() {
		lines := bufio.NewScanner(conn)
		for lines.Scan() {
			fmt.Println(render(lines.Text()))
		}
		color.Red.Println("Disconnected from server.")
		os.Exit(0)
	}()

	input := bufio.NewScanner(os.Stdin)
	for input.Scan() {
		if _, err := fmt.Fprintf(conn, "%s\n", input.Text()); err != nil {
			fmt.Fprintf(os.Stderr, "send: %v\n", err)
			os.Exit(1)
		}
	}
}

// render colorizes a server line: system notices yellow, history markers
// dimmed, chat sender tags cyan.
func render(line string) string {
	systemTag := "[" + model.SystemSender + "]"
	switch {
	case strings.HasPrefix(line, systemTag):
		return color.New(color.FgYellow).Render(line)
	case strings.HasPrefix(line, "--- "):
		return color.New(color.FgDarkGray).Render(line)
	case strings.HasPrefix(line, "["):
		if i := strings.Index(line, "] "); i > 0 {
			return color.New(color.FgCyan).Render(line[:i+1]) + line[i+1:]
		}
	}
	return line
}
