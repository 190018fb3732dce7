package main

import "workforce-tracker.com/workforce-tracker/cmd"

func main() {
	cmd.Execute()
}
