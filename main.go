package main

import "github.com/clawbridge/clawbridge/cmd"

func main() {
	cmd.Execute()
}
