// toybox - browser and terminal UIs for a toy collection REST backend
package main

import "github.com/pthm/toybox/internal/cli"

func main() {
	cli.Execute()
}
