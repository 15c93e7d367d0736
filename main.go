package main

import "github.com/jfmyers9/nowplayer/cmd"

func main() {
	cmd.Execute()
}
