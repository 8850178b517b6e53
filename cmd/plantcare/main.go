// Command plantcare manages recurring plant care reminders and delivers their
// alerts.
//
// Usage:
//
//	plantcare add --plant fern --type watering --every weekly --day sunday
//	plantcare list
//	plantcare done <id>
//	plantcare run --metrics-addr :9090
//	plantcare shell
package main

import (
	"fmt"
	"os"

	"github.com/notexe/plant-care/cmd/plantcare/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
