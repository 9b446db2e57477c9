// FilePath: cmd/main.go
package main

import (
	"fmt"
	"os"

	tm "github.com/buger/goterm"
	nuts "github.com/vaudience/go-nuts"
)

// @title Geosensor API
// @version 1.0
// @description Registration, telemetry and proximity search for IoT sensors.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	nuts.InitVersion()
	loadEnv()

	if err := rootCmd.Execute(); err != nil {
		nuts.L.Errorf("[Main] %v", err)
		os.Exit(1)
	}
}

// ClearConsole clears the console screen and draws the logo.
func ClearConsole() {
	tm.Clear()
	tm.MoveCursor(1, 1)
	tm.Flush()
}

func DrawLogo() {
	fmt.Println()
	lines := []string{
		"   ___                                          ",
		"  / _ \\___ ___  ___ ___ ___  ___ ___  ____      ",
		" / (_ / -_) _ \\(_-</ -_) _ \\(_-</ _ \\/ __/      ",
		" \\___/\\__/\\___/___/\\__/_//_/___/\\___/_/         ",
		"..........................................  " + nuts.GetVersion(),
	}

	for _, line := range lines {
		fmt.Println(line)
	}
}
