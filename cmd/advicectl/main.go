// AngelaMos | 2026
// main.go

package main

import "github.com/carterperez-dev/persona-advice/cmd/advicectl/commands"

func main() {
	commands.Execute()
}
