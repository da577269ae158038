// Command scorecli scores a batch of clearance records from a YAML file and
// prints the same tables the web console shows.
package main

func main() {
	Execute()
}
