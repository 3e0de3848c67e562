// billingmock CLI - simulate billing API resources in memory
package main

import "github.com/getmockd/billingmock/pkg/cli"

func main() {
	cli.Execute()
}
