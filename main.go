package main

import "github.com/tusharsharma89566/Edu-Learn/cmd"

func main() {
	cmd.Execute()
}
