package main

import "github.com/SiirRandall/goldberg-manager/internal/app"

func main() {
	app.Run()
}
