package main

import "github.com/theirongolddev/tripspend/cmd"

func main() {
	cmd.Execute()
}
