// Command shifter drives a chain of 74HC595-style shift registers from three
// Raspberry Pi GPIO lines. It runs as an MQTT-controlled daemon or as a set
// of one-shot and demo subcommands.
package main

func main() {
	Execute()
}
