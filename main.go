package main

import (
	"soundbay/cmd"
)

func main() {
	cmd.Execute()
}
