package main

import "github.com/jamiemulcahy/pa-pedia-sub001/cmd"

func main() {
	cmd.Execute()
}
