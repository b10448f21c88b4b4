/*
Copyright © 2025 Mosaic HQ <oss@mosaichq.dev>
*/
package main

import "github.com/mosaichq/rulegen/cmd"

func main() {
	cmd.Execute()
}
