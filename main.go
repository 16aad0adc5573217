/*
Copyright © 2026 Tyrian Games
*/
package main

import "github.com/tyrian-games/luthadel/cmd"

func main() {
	cmd.Execute()
}
