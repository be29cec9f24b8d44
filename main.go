package main

import (
	"github.com/whitehorses/servicebus-plugin/cmd"
)

func main() {
	cmd.Execute()
}
