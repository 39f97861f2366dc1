package main

import "example.com/coldchain/cmd"

func main() {
	cmd.Execute()
}
