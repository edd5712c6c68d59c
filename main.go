package main

import "github.com/QuartzBytes/sheetquery-cli/cmd"

func main() {
	cmd.Execute()
}
