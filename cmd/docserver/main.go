// Command docserver serves static files from a document root.
//
//	docserver -config config.ini
package main

import "github.com/searchktools/docroot-server/app"

func main() {
	app.Main()
}
