package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	get "github.com/hashicorp/go-getter"
)

// packget downloads a terrain parameter pack (YAML configs plus palette
// data) from a git repository or URL into the local packs directory.
func main() {
	var (
		src  = flag.String("src", "", "pack source, any go-getter URL (git::..., https://..., file paths)")
		name = flag.String("name", "", "pack name, used as the target directory")
		out  = flag.String("o", "./packs", "packs dir path")
	)
	flag.Parse()

	if *src == "" {
		panic("pack source required")
	}

	if *name == "" {
		panic("pack name required")
	}

	path := fmt.Sprintf("%s/%s", *out, *name)

	if err := os.RemoveAll(path); err != nil {
		panic(err)
	}

	log.Default().Printf("start downloading pack %s", path)

	if err := get.Get(path, *src); err != nil {
		panic(err)
	}

	log.Default().Printf("done downloading pack %s", path)
}
