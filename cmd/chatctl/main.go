// Command chatctl is a line-mode client for poking a running chat server.
// It reads raw JSON packet lines from stdin, sends each one, and prints the
// server's response line. Useful for smoke testing without a GUI client:
//
//	$ chatctl --addr localhost:9000
//	{"type":"LOGIN_REQUEST","data":{"username":"alice","password":"secret"}}
package main

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/cyberinferno/go-chat-server/client"
	"github.com/cyberinferno/go-chat-server/config"
	"github.com/cyberinferno/go-chat-server/protocol"
)

func main() {
	addr := pflag.String("addr", "localhost"+config.DefaultAddr, "server address")
	timeout := pflag.Duration("timeout", 10*time.Second, "per-exchange timeout")
	pflag.Parse()

	c, err := client.Dial(*addr, *timeout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer c.Close()

	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}

		if err := c.SendRaw(line); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		resp, err := c.Recv()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		out, err := protocol.Encode(resp)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		os.Stdout.Write(out)
	}
}
