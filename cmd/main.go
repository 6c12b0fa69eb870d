package main

import "uirecorder/internal/cli"

func main() {
	cli.Execute()
}
