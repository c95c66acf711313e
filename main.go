package main

import "github.com/mateconpizza/webstore/cmd"

func main() {
	cmd.Execute()
}
