package main

var script = `function add(a, b) { return a + b; }`

func main() {
	_ = script
}
