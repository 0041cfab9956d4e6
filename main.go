package main

import "github.com/viktsys/cryptostock/cmd"

func main() {
	cmd.Execute()
}
