// Command arbor views, inspects and exports collapsible mind maps.
package main

func main() {
	Execute()
}
