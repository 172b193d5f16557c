package main

import "github.com/mwhitfield/pydiff/cmd"

func main() {
	cmd.Execute()
}
