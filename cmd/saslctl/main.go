// Command saslctl is a demonstration CLI for the sasl module: it drives
// a loopback client/server exchange for a chosen mechanism using
// credentials given on the command line, analogous to a loopback
// example client/server pair. It is a consumer of the core package,
// not part of it.
package main

import "github.com/sasl-go/sasl/cmd/saslctl/command"

func main() {
	command.Execute()
}
