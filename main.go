package main

import (
	"context"
	_ "embed"
	"os"

	mdmakecmd "github.com/yaklabco/mdmake/cmd/mdmake"
	"github.com/yaklabco/mdmake/pkg/mdmake"
)

//go:embed README.md
var readme string

func main() {
	os.Exit(actualMain())
}

func actualMain() int {
	ctx := context.Background()

	rootCmd := mdmakecmd.NewRootCmd(ctx, mdmakecmd.WithReadme(readme))

	if err := mdmakecmd.ExecuteWithFang(ctx, rootCmd); err != nil {
		return mdmake.ExitCode(err)
	}

	return 0
}
