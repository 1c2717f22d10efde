// Command ridechat answers questions about a cycling ride from the terminal or
// over HTTP.
package main

import "github.com/lucasjlepore/ridechat/internal/app"

var version = "dev"

func main() {
	app.SetVersion(version)
	app.Execute()
}
