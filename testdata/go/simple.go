package main

import "fmt"

// greet returns a friendly greeting for name.
func greet(name string) string {
	message := "hello, " + name
	return message
}

func main() {
	user := "gopher"
	fmt.Println(greet(user))
}
