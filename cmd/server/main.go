package main

import "github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/app"

func main() {
	app.Run()
}
