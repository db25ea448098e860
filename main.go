package main

import "thoreinstein.com/bb/cmd"

func main() {
	cmd.Execute()
}
