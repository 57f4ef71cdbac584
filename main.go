package main

import "github.com/klytics/xlprompt/cmd"

func main() {
	cmd.Execute()
}
