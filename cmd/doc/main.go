package main

import "github.com/c4rrotJuice/web-unlocker-tool/cmd"

func main() {
	cmd.Execute()
}
