package main

import "github.com/MrArkon/Rustic/cmd"

func main() {
	cmd.Execute()
}
