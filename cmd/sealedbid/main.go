// Command sealedbid は封印入札オークションのAPIサーバー、ワーカー、マイグレーションを起動する。
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/sealedbid/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "sealedbid: %v\n", err)
		os.Exit(1)
	}
}
